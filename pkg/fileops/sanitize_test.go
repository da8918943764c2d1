package fileops

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean name unchanged",
			input: "notes.md",
			want:  "notes.md",
		},
		{
			name:  "path separators replaced",
			input: "a/b\\c.md",
			want:  "a_b_c.md",
		},
		{
			name:  "traversal dots stripped",
			input: "..secret..md",
			want:  "secretmd",
		},
		{
			name:  "shell and glob characters replaced",
			input: `ev*il?"<file>"|name`,
			want:  "ev_il_file_name",
		},
		{
			name:  "drive colon replaced",
			input: "C:config.md",
			want:  "C_config.md",
		},
		{
			name:  "underscore runs collapsed",
			input: "a//b::c.md",
			want:  "a_b_c.md",
		},
		{
			name:  "leading and trailing underscores trimmed",
			input: "/name/",
			want:  "name",
		},
		{
			name:  "empty input",
			input: "",
			want:  "unnamed",
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  "unnamed",
		},
		{
			name:  "single dot",
			input: ".",
			want:  "unnamed",
		},
		{
			name:  "double dot",
			input: "..",
			want:  "unnamed",
		},
		{
			name:  "reduces to nothing",
			input: "///",
			want:  "unnamed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
