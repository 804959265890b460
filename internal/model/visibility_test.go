package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibilityAtLeast(t *testing.T) {
	pub := Visibility{Kind: VisPub}
	crate := Visibility{Kind: VisPubCrate}
	super := Visibility{Kind: VisPubSuper}
	private := Visibility{Kind: VisPrivate}

	assert.True(t, pub.AtLeast(crate))
	assert.True(t, crate.AtLeast(super))
	assert.True(t, super.AtLeast(private))
	assert.True(t, private.AtLeast(private))

	assert.False(t, private.AtLeast(super))
	assert.False(t, crate.AtLeast(pub))
}

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   Criterion
		wantOK bool
	}{
		{"struct", "struct", StructLevel, true},
		{"module", "module", ModuleLevel, true},
		{"crate", "crate", CrateLevel, true},
		{"empty defaults to module", "", ModuleLevel, true},
		{"unknown", "galaxy", ModuleLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCriterion(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParentPath(t *testing.T) {
	assert.Equal(t, Path("core::ptr"), ParentPath("core::ptr::read"))
	assert.Equal(t, Path(""), ParentPath("core"))
}

func TestWithinSubtree(t *testing.T) {
	assert.True(t, WithinSubtree("core::ptr", "core::ptr"))
	assert.True(t, WithinSubtree("core::ptr::internal", "core::ptr"))
	assert.False(t, WithinSubtree("core::ptrs", "core::ptr"))
	assert.False(t, WithinSubtree("core", "core::ptr"))
}

func TestTerminalStateSupersedes(t *testing.T) {
	assert.True(t, StateMalformedRequirement.Supersedes(StateContractStrengthening))
	assert.True(t, StateContractStrengthening.Supersedes(StateBoundaryViolation))
	assert.True(t, StateBoundaryViolation.Supersedes(StateClassificationViolation))
	assert.True(t, StateClassificationViolation.Supersedes(SoundUnsafe))
	assert.True(t, SoundUnsafe.Supersedes(SoundSafe))
	assert.False(t, SoundSafe.Supersedes(StateClassificationViolation))
}

func TestTerminalStateViolation(t *testing.T) {
	assert.False(t, SoundSafe.Violation())
	assert.False(t, SoundUnsafe.Violation())
	assert.True(t, StateClassificationViolation.Violation())
	assert.True(t, StateBoundaryViolation.Violation())
	assert.True(t, StateMalformedRequirement.Violation())
	assert.True(t, StateContractStrengthening.Violation())
}
