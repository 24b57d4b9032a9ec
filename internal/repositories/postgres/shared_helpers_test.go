package postgres

import "testing"

func TestSortClause(t *testing.T) {
	cases := []struct {
		name      string
		sortBy    string
		sortOrder string
		allowed   map[string]bool
		want      string
	}{
		{"allowed column asc", "title", "asc", contentSortColumns, "title asc"},
		{"allowed column desc", "updated_at", "desc", contentSortColumns, "updated_at desc"},
		{"empty defaults", "", "", contentSortColumns, "created_at desc"},
		{"unknown column falls back", "author_user_name", "asc", contentSortColumns, "created_at asc"},
		{"injection attempt neutralized", "created_at;SELECT pg_sleep(10)--", "desc", contentSortColumns, "created_at desc"},
		{"quoted injection neutralized", `created_at" --`, "asc", roleRequestSortColumns, "created_at asc"},
		{"bad order falls back", "status", "sideways", roleRequestSortColumns, "status desc"},
		{"content-only column rejected for requests", "title", "asc", roleRequestSortColumns, "created_at asc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sortClause(tc.sortBy, tc.sortOrder, tc.allowed); got != tc.want {
				t.Errorf("sortClause(%q, %q) = %q, want %q", tc.sortBy, tc.sortOrder, got, tc.want)
			}
		})
	}
}
