package validation

import "testing"

type testSubject struct {
	Name string `validate:"required,max=10"`
	MAC  string `validate:"mac"`
	Mail string `validate:"email"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		subject testSubject
		wantErr bool
	}{
		{"valid", testSubject{Name: "wlan0", MAC: "00:11:22:33:44:55", Mail: "a@b.c"}, false},
		{"missing required", testSubject{MAC: "00:11:22:33:44:55", Mail: "a@b.c"}, true},
		{"too long", testSubject{Name: "a-very-long-name", MAC: "00:11:22:33:44:55", Mail: "a@b.c"}, true},
		{"bad mac", testSubject{Name: "wlan0", MAC: "nonsense", Mail: "a@b.c"}, true},
		{"bad email", testSubject{Name: "wlan0", MAC: "00:11:22:33:44:55", Mail: "nope"}, true},
		{"empty mac allowed", testSubject{Name: "wlan0", Mail: "a@b.c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.subject)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNonStruct(t *testing.T) {
	v := NewValidator()
	if err := v.Validate("not a struct"); err == nil {
		t.Fatal("expected error for non-struct")
	}
}
