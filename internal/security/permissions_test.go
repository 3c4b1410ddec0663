package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAppendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pushhook.log")

	f, err := OpenAppendFile(path, PermLogFile)
	if err != nil {
		t.Fatalf("OpenAppendFile() error = %v", err)
	}
	if _, err := f.WriteString("first\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	f.Close()

	f, err = OpenAppendFile(path, PermLogFile)
	if err != nil {
		t.Fatalf("OpenAppendFile() second open error = %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("file content = %q, want both lines appended", data)
	}

	if err := ValidateSecurePermissions(path); err != nil {
		t.Errorf("new log file should not be world accessible: %v", err)
	}
}

func TestValidateSecurePermissions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		perm    os.FileMode
		wantErr bool
	}{
		{"owner only", 0600, false},
		{"group readable", 0640, false},
		{"world readable", 0644, true},
		{"world writable", 0602, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name)
			if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if err := os.Chmod(path, tt.perm); err != nil {
				t.Fatalf("Chmod() error = %v", err)
			}

			err := ValidateSecurePermissions(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecurePermissions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
