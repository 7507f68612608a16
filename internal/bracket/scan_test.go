package bracket

import (
	"errors"
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Defect
	}{
		{
			name: "empty expression",
			expr: "",
			want: Defect{},
		},
		{
			name: "balanced nesting",
			expr: "((()))",
			want: Defect{},
		},
		{
			name: "no brackets at all",
			expr: "abc def",
			want: Defect{},
		},
		{
			name: "mismatched closer",
			expr: "a[b)c",
			want: Defect{Kind: DefectMismatch, Missing: ']', Start: 1, Stop: 4, At: 3},
		},
		{
			name: "trailing unclosed opener",
			expr: "[a][b",
			want: Defect{Kind: DefectUnclosedOpener, Missing: ']', Start: 3, Stop: 6, At: 3},
		},
		{
			name: "closer with empty stack",
			expr: "a]b",
			want: Defect{Kind: DefectUnopenedCloser, Missing: '[', Start: 0, Stop: 2, At: 1},
		},
		{
			name: "closer first",
			expr: ")(",
			want: Defect{Kind: DefectUnopenedCloser, Missing: '(', Start: 0, Stop: 1, At: 0},
		},
		{
			name: "lone opener",
			expr: "(",
			want: Defect{Kind: DefectUnclosedOpener, Missing: ')', Start: 0, Stop: 2, At: 0},
		},
		{
			name: "crossed pairs report innermost opener",
			expr: "([)]",
			want: Defect{Kind: DefectMismatch, Missing: ']', Start: 1, Stop: 3, At: 2},
		},
		{
			name: "topmost unclosed opener wins",
			expr: "{a(b",
			want: Defect{Kind: DefectUnclosedOpener, Missing: ')', Start: 2, Stop: 5, At: 2},
		},
		{
			name: "leftmost defect only",
			expr: "a]b)",
			want: Defect{Kind: DefectUnopenedCloser, Missing: '[', Start: 0, Stop: 2, At: 1},
		},
	}

	pairs := DefaultPairs()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanString(tt.expr, pairs)
			if got != tt.want {
				t.Errorf("ScanString(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestScan_RuneOffsets(t *testing.T) {
	pairs, err := ParsePairs("«»")
	if err != nil {
		t.Fatalf("ParsePairs: %v", err)
	}
	got := ScanString("«ü", pairs)
	want := Defect{Kind: DefectUnclosedOpener, Missing: '»', Start: 0, Stop: 3, At: 0}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScan_IgnoresRunesOutsideSet(t *testing.T) {
	pairs, err := ParsePairs("()")
	if err != nil {
		t.Fatalf("ParsePairs: %v", err)
	}
	if d := ScanString("[(x)", pairs); !d.None() {
		t.Fatalf("expected no defect, got %v", d)
	}
}

func TestScan_ZeroPairSet(t *testing.T) {
	if d := ScanString("(((", PairSet{}); !d.None() {
		t.Fatalf("expected no defect with empty pair set, got %v", d)
	}
}

func TestDefect_Candidates(t *testing.T) {
	d := ScanString("[a][b", DefaultPairs())
	if got := d.Candidates(); got != 3 {
		t.Fatalf("Candidates() = %d, want 3", got)
	}
	if got := (Defect{}).Candidates(); got != 0 {
		t.Fatalf("Candidates() on none = %d, want 0", got)
	}
}

func TestBalanced(t *testing.T) {
	pairs := DefaultPairs()
	if !Balanced("f(a[1]{x})", pairs) {
		t.Error("expected balanced")
	}
	if Balanced("f(a[1]{x)", pairs) {
		t.Error("expected unbalanced")
	}
}

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		wantErr bool
	}{
		{name: "defaults", specs: []string{"[]", "()", "{}"}},
		{name: "angle brackets", specs: []string{"<>"}},
		{name: "empty set", specs: nil},
		{name: "same rune both sides", specs: []string{"||"}, wantErr: true},
		{name: "rune reused across pairs", specs: []string{"[]", "[)"}, wantErr: true},
		{name: "opener reused as closer", specs: []string{"()", ")("}, wantErr: true},
		{name: "too long", specs: []string{"[]]"}, wantErr: true},
		{name: "too short", specs: []string{"["}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParsePairs(tt.specs...)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPairs) {
					t.Fatalf("expected ErrInvalidPairs, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if set.Len() != len(tt.specs) {
				t.Fatalf("Len() = %d, want %d", set.Len(), len(tt.specs))
			}
		})
	}
}

func TestPairSet_Lookups(t *testing.T) {
	set := DefaultPairs()
	if c, ok := set.CloserFor('{'); !ok || c != '}' {
		t.Errorf("CloserFor('{') = %q, %v", c, ok)
	}
	if o, ok := set.OpenerFor(')'); !ok || o != '(' {
		t.Errorf("OpenerFor(')') = %q, %v", o, ok)
	}
	if set.IsOpener(']') || !set.IsCloser(']') {
		t.Error("']' must be a closer only")
	}
	if got := set.String(); got != "[] () {}" {
		t.Errorf("String() = %q", got)
	}
}

func TestPairSet_PairsReturnsCopy(t *testing.T) {
	set := DefaultPairs()
	pairs := set.Pairs()
	pairs[0] = Pair{Open: '<', Close: '>'}
	if set.IsOpener('<') || set.Pairs()[0].Open != '[' {
		t.Fatal("mutating Pairs() result must not affect the set")
	}
}
