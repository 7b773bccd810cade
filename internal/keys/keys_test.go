package keys

import "testing"

// The constants exist so call sites can't typo key strings; these tests pin
// the values we compare against in Update handlers.
func TestKeyStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{Up, "up"},
		{Down, "down"},
		{Enter, "enter"},
		{Escape, "esc"},
		{Tab, "tab"},
		{ShiftTab, "shift+tab"},
		{CtrlC, "ctrl+c"},
		{CtrlQ, "ctrl+q"},
		{CtrlE, "ctrl+e"},
		{PgUp, "pgup"},
		{PgDown, "pgdown"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("key constant = %q, want %q", tc.got, tc.want)
		}
	}
}
