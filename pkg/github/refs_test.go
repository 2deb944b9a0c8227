package github

import "testing"

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RepoRef
		wantErr bool
	}{
		{
			name:  "short form",
			input: "acme/parent",
			want:  RepoRef{Owner: "acme", Name: "parent"},
		},
		{
			name:  "short form with .git suffix",
			input: "acme/parent.git",
			want:  RepoRef{Owner: "acme", Name: "parent"},
		},
		{
			name:  "full URL",
			input: "https://github.com/acme/parent",
			want:  RepoRef{Owner: "acme", Name: "parent"},
		},
		{
			name:  "full URL with .git",
			input: "https://github.com/acme/parent.git",
			want:  RepoRef{Owner: "acme", Name: "parent"},
		},
		{
			name:  "full URL with trailing slash",
			input: "https://github.com/acme/parent/",
			want:  RepoRef{Owner: "acme", Name: "parent"},
		},
		{
			name:  "repo name containing dots",
			input: "vercel/next.js",
			want:  RepoRef{Owner: "vercel", Name: "next.js"},
		},
		{
			name:  "surrounding whitespace",
			input: "  acme/parent  ",
			want:  RepoRef{Owner: "acme", Name: "parent"},
		},
		{
			name:    "bare name",
			input:   "parent",
			wantErr: true,
		},
		{
			name:    "too many segments",
			input:   "acme/parent/extra",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRepoRef(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepoRef(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepoRef(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePRRef(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRepo RepoRef
		wantNum  int
		wantErr  bool
	}{
		{
			name:     "valid",
			input:    "acme/parent#123",
			wantRepo: RepoRef{Owner: "acme", Name: "parent"},
			wantNum:  123,
		},
		{
			name:    "missing number",
			input:   "acme/parent",
			wantErr: true,
		},
		{
			name:    "non-numeric",
			input:   "acme/parent#abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, num, err := ParsePRRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePRRef(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePRRef(%q) error = %v", tt.input, err)
			}
			if repo != tt.wantRepo || num != tt.wantNum {
				t.Errorf("ParsePRRef(%q) = %+v #%d, want %+v #%d", tt.input, repo, num, tt.wantRepo, tt.wantNum)
			}
		})
	}
}

func TestRepoRefURLs(t *testing.T) {
	ref := RepoRef{Owner: "acme", Name: "mirror"}

	if got, want := ref.CloneURL(), "https://github.com/acme/mirror.git"; got != want {
		t.Errorf("CloneURL() = %q, want %q", got, want)
	}
	if got, want := ref.PullURL(7), "https://github.com/acme/mirror/pull/7"; got != want {
		t.Errorf("PullURL() = %q, want %q", got, want)
	}
	if got, want := ref.String(), "acme/mirror"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
