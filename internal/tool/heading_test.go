package tool

import "testing"

func TestStripDuplicateHeading(t *testing.T) {
	tests := []struct {
		name    string
		content string
		docName string
		want    string
	}{
		{
			name:    "matching heading removed",
			content: "# Daily Note\nbody",
			docName: "Daily Note",
			want:    "body",
		},
		{
			name:    "different heading kept",
			content: "# Other Title\nbody",
			docName: "Daily Note",
			want:    "# Other Title\nbody",
		},
		{
			name:    "only the heading line is removed",
			content: "\n\n# Daily Note\n\nbody",
			docName: "Daily Note",
			want:    "\n\n\nbody",
		},
		{
			name:    "level-2 heading kept",
			content: "## Daily Note\nbody",
			docName: "Daily Note",
			want:    "## Daily Note\nbody",
		},
		{
			name:    "heading not on first non-blank line kept",
			content: "intro\n# Daily Note\nbody",
			docName: "Daily Note",
			want:    "intro\n# Daily Note\nbody",
		},
		{
			name:    "empty content untouched",
			content: "",
			docName: "Daily Note",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripDuplicateHeading(tt.content, tt.docName); got != tt.want {
				t.Errorf("stripDuplicateHeading() = %q, want %q", got, tt.want)
			}
		})
	}
}
