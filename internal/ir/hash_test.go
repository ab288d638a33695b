package ir

import (
	"encoding/json"
	"testing"
)

func testProgram() *Program {
	return &Program{
		Participants: map[string]InteractSpec{
			"A": {"getX": TFun{Rng: TUInt256{}}},
		},
		Body: []Stmt{
			Only{Who: "A", Body: []Stmt{
				Let{
					Var:  Var{Idx: 1, Hint: "x", Type: TUInt256{}},
					Expr: Interact{Who: "A", Method: "getX", Rng: TUInt256{}},
				},
			}},
			Stop{},
		},
	}
}

func TestProgramHash_Stable(t *testing.T) {
	p := testProgram()
	first, err := ProgramHash(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Fatalf("hash %q is not hex sha256", first)
	}
	second, err := ProgramHash(testProgram())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("equal programs hashed to %s and %s", first, second)
	}
}

func TestProgramHash_SensitiveToBody(t *testing.T) {
	a, err := ProgramHash(testProgram())
	if err != nil {
		t.Fatal(err)
	}
	p := testProgram()
	p.Body = p.Body[:1]
	b, err := ProgramHash(p)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("dropping a statement did not change the hash")
	}
}

func TestHash_DomainSeparation(t *testing.T) {
	data := []byte(`{"x":1}`)
	if hashWithDomain(DomainProgram, data) == hashWithDomain(DomainBundle, data) {
		t.Error("program and bundle domains produced the same digest for the same bytes")
	}
	// The null separator keeps domain/data boundaries unambiguous.
	if hashWithDomain("ab", []byte("c")) == hashWithDomain("a", []byte("bc")) {
		t.Error("shifting bytes across the domain boundary did not change the digest")
	}
}

func TestCanonicalJSON_IsValidJSON(t *testing.T) {
	data, err := testProgram().CanonicalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("canonical output is not JSON: %v\n%s", err, data)
	}
	if _, ok := decoded["participants"]; !ok {
		t.Errorf("canonical program is missing participants: %s", data)
	}
	if _, ok := decoded["body"]; !ok {
		t.Errorf("canonical program is missing body: %s", data)
	}
}
