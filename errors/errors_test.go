package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase_and_kind",
			err:  &Error{Phase: PhaseDecode, Kind: KindInvalidEnum},
			want: "[decode] invalid_enum",
		},
		{
			name: "with_path",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInvalidEnum,
				Path:  []string{"result", "status"},
			},
			want: "[decode] invalid_enum at result.status",
		},
		{
			name: "with_type_and_detail",
			err: &Error{
				Phase:    PhaseValidate,
				Kind:     KindOutOfRange,
				TypeName: "u8",
				Detail:   "value 256 out of range for u8",
			},
			want: "[validate] out_of_range: type u8 - value 256 out of range for u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorCauseChain(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(PhaseModel, KindInvalidData, cause, "decode model")

	if !strings.Contains(err.Error(), "caused by: boom") {
		t.Errorf("cause missing from %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
}

func TestErrorIsMatchesPhaseKind(t *testing.T) {
	err := InvalidEnumTag(PhaseDecode, nil, 7, 3)

	if !stderrors.Is(err, &Error{Phase: PhaseDecode, Kind: KindInvalidEnum}) {
		t.Error("should match same phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseEncode, Kind: KindInvalidEnum}) {
		t.Error("should not match different phase")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseEmit, KindNotFound).
		Path("objects", "Counter").
		TypeName("Counter").
		Detail("object definition missing").
		Build()

	if err.Phase != PhaseEmit || err.Kind != KindNotFound {
		t.Errorf("unexpected phase/kind: %v/%v", err.Phase, err.Kind)
	}
	want := "[emit] not_found at objects.Counter: type Counter - object definition missing"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestInvalidEnumTagMessage(t *testing.T) {
	err := InvalidEnumTag(PhaseDecode, []string{"shape"}, 0, 4)
	want := "[decode] invalid_enum at shape: unexpected enum case: tag 0 outside [1, 4]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
