package security

import "testing"

func TestValidateServiceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "web", false},
		{"with suffix", "web.service", false},
		{"template instance", "worker@2.service", false},
		{"with dashes", "my-app_api", false},
		{"empty", "", true},
		{"option injection", "--now", true},
		{"leading dot", ".hidden", true},
		{"space", "my app", true},
		{"semicolon", "web;reboot", true},
		{"slash", "../web", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServiceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantErr bool
	}{
		{"git pull", []string{"git", "pull", "--ff-only"}, false},
		{"systemctl", []string{"sudo", "systemctl", "restart"}, false},
		{"empty", nil, true},
		{"leading dash", []string{"-rf"}, true},
		{"chained", []string{"git", "pull", "&&", "make"}, true},
		{"substitution", []string{"echo", "$(id)"}, true},
		{"redirect", []string{"git", "pull", ">", "/tmp/out"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommand(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"absolute", "/srv/app", "/srv/app", false},
		{"trailing slash", "/srv/app/", "/srv/app", false},
		{"dot elements", "/srv/./app", "/srv/app", false},
		{"relative", "srv/app", "", true},
		{"traversal", "/srv/../etc", "", true},
		{"dots in name are fine", "/srv/app..v2", "/srv/app..v2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
