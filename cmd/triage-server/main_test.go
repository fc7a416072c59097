package main

import "testing"

func TestPatientIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"docs/patient_017.txt", "patient_017"},
		{"patient_017.txt", "patient_017"},
		{"/tmp/notes/er-note.md", "er-note"},
		{"noext", "noext"},
		{"dir.with.dots/p1.note.txt", "p1.note"},
	}
	for _, tt := range tests {
		if got := patientIDFromPath(tt.path); got != tt.want {
			t.Errorf("patientIDFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
