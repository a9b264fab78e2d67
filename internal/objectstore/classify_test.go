package objectstore

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestIsArchivedStorageClasses(t *testing.T) {
	tests := []struct {
		name  string
		class string
		want  bool
	}{
		{"standard", "STANDARD", false},
		{"glacier", "GLACIER", true},
		{"deep archive", "DEEP_ARCHIVE", true},
		{"infrequent access", "STANDARD_IA", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := minio.ObjectInfo{StorageClass: tt.class}
			if got := isArchived(info); got != tt.want {
				t.Errorf("isArchived(%q) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestClassifyGenericError(t *testing.T) {
	if got := classify(errors.New("boom")); got == "" {
		t.Error("classify should never return an empty ErrorKind")
	}
}
