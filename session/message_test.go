package session

import (
	"errors"
	"testing"
)

func TestClassify_OneBranchPerMessage(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "created",
			raw:  `{"game_id": "abc"}`,
			want: Event{Kind: EventCreated, GameID: "abc"},
		},
		{
			name: "joined",
			raw:  `{"joined": true}`,
			want: Event{Kind: EventJoined},
		},
		{
			name: "color assigned",
			raw:  `{"color": "black"}`,
			want: Event{Kind: EventColorAssigned, Color: ColorBlack},
		},
		{
			name: "move",
			raw:  `{"src_row": 4, "src_col": 1, "dst_row": 3, "dst_col": 1}`,
			want: Event{Kind: EventMove, Move: Move{SrcRow: 4, SrcCol: 1, DstRow: 3, DstCol: 1}},
		},
		{
			name: "move with zero coordinates",
			raw:  `{"src_row": 0, "src_col": 0, "dst_row": 0, "dst_col": 0}`,
			want: Event{Kind: EventMove},
		},
		{
			name: "rules update",
			raw:  `{"rules": {"backward-pawn-moves": true, "castling": false}}`,
			want: Event{Kind: EventRulesUpdate, Rules: RuleSet{"backward-pawn-moves": true, "castling": false}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify([]byte(tc.raw))
			if err != nil {
				t.Fatal(err)
			}
			if got.Kind != tc.want.Kind || got.GameID != tc.want.GameID ||
				got.Color != tc.want.Color || got.Move != tc.want.Move {
				t.Fatalf("Classify(%s) = %+v, want %+v", tc.raw, got, tc.want)
			}
			if len(got.Rules) != len(tc.want.Rules) {
				t.Fatalf("rules = %v, want %v", got.Rules, tc.want.Rules)
			}
			for k, v := range tc.want.Rules {
				if got.Rules[k] != v {
					t.Fatalf("rules[%q] = %v, want %v", k, got.Rules[k], v)
				}
			}
		})
	}
}

func TestClassify_ProtocolErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `moo`},
		{"empty object", `{}`},
		{"unknown fields only", `{"bogus": 1}`},
		{"two kinds at once", `{"game_id": "abc", "joined": true}`},
		{"move plus rules", `{"src_row":1,"src_col":1,"dst_row":2,"dst_col":2,"rules":{"a":true}}`},
		{"joined false", `{"joined": false}`},
		{"bad color", `{"color": "green"}`},
		{"partial move", `{"src_row": 4, "src_col": 1}`},
		{"empty game id", `{"game_id": ""}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Classify([]byte(tc.raw)); err == nil {
				t.Fatalf("Classify(%s) succeeded, want error", tc.raw)
			}
		})
	}

	if _, err := Classify([]byte(`{}`)); !errors.Is(err, ErrEmptyMessage) {
		t.Fatal("empty object should map to ErrEmptyMessage")
	}
	if _, err := Classify([]byte(`{"joined": true, "color": "white"}`)); !errors.Is(err, ErrAmbiguousMessage) {
		t.Fatal("double-kind message should map to ErrAmbiguousMessage")
	}
}

func TestColorOther(t *testing.T) {
	if ColorWhite.Other() != ColorBlack || ColorBlack.Other() != ColorWhite {
		t.Fatal("Other must flip the color")
	}
}
