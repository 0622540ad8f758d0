package model

import (
	"encoding/json"
	"testing"
)

func TestDocumentID_Decode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    DocumentID
		wantErr bool
	}{
		{"number", `{"id": 2, "act_name": "CrPC"}`, "2", false},
		{"string", `{"id": "ipc-1860", "act_name": "IPC"}`, "ipc-1860", false},
		{"null", `{"id": null}`, "", false},
		{"object", `{"id": {"x": 1}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Document
			err := json.Unmarshal([]byte(tt.in), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d.ID != tt.want {
				t.Errorf("ID = %q, want %q", d.ID, tt.want)
			}
		})
	}
}

func TestLawAndCaseIDs_Decode(t *testing.T) {
	var law Law
	if err := json.Unmarshal([]byte(`{"id": 17, "section_id": "379"}`), &law); err != nil {
		t.Fatal(err)
	}
	if law.ID != "17" {
		t.Errorf("law id = %q", law.ID)
	}

	var rec CaseRecord
	if err := json.Unmarshal([]byte(`{"id": 4, "caseHeading": "Theft"}`), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != "4" {
		t.Errorf("case id = %q", rec.ID)
	}
}
