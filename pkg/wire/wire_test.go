package wire

import (
	"encoding/json"
	"testing"
)

func TestIntBool_MarshalsAsDigit(t *testing.T) {
	out, err := json.Marshal(struct {
		Flag IntBool `json:"flag"`
	}{Flag: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"flag":1}` {
		t.Errorf("expected flag 1, got %s", out)
	}

	out, _ = json.Marshal(struct {
		Flag IntBool `json:"flag"`
	}{Flag: false})
	if string(out) != `{"flag":0}` {
		t.Errorf("expected flag 0, got %s", out)
	}
}

func TestIntBool_AcceptsBothEncodings(t *testing.T) {
	cases := map[string]bool{
		`1`:     true,
		`0`:     false,
		`true`:  true,
		`false`: false,
		`null`:  false,
	}
	for input, want := range cases {
		var b IntBool
		if err := json.Unmarshal([]byte(input), &b); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		if b.Bool() != want {
			t.Errorf("input %s: expected %v, got %v", input, want, b.Bool())
		}
	}

	var b IntBool
	if err := json.Unmarshal([]byte(`"true"`), &b); err == nil {
		t.Error("expected error for string-typed boolean")
	}
}

func TestEnvelope(t *testing.T) {
	out, _ := json.Marshal(OK())
	if string(out) != `{"success":true}` {
		t.Errorf("unexpected success envelope: %s", out)
	}

	out, _ = json.Marshal(Fail("保存に失敗しました"))
	var env Envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Success || env.Error != "保存に失敗しました" {
		t.Errorf("unexpected failure envelope: %+v", env)
	}
}
