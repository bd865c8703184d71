package indexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hub-search/indexcore/internal/errs"
)

func TestParamsValidate_BatchSizeBelowMinimum(t *testing.T) {
	p := Params{Steps: []string{StepIndex}, BatchSize: 49, Mode: ModeIndex}
	err := p.Validate()
	require.Error(t, err)
	var bad *errs.BadInput
	require.ErrorAs(t, err, &bad)
}

func TestParamsValidate_BatchSizeAboveMaximum(t *testing.T) {
	p := Params{Steps: []string{StepIndex}, BatchSize: 10001, Mode: ModeIndex}
	require.Error(t, p.Validate())
}

func TestParamsValidate_UnknownMode(t *testing.T) {
	p := Params{Steps: []string{StepIndex}, BatchSize: 1000, Mode: "bogus"}
	require.Error(t, p.Validate())
}

func TestParamsValidate_EmptySteps(t *testing.T) {
	p := Params{Steps: nil, BatchSize: 1000, Mode: ModeIndex}
	require.Error(t, p.Validate())
}

func TestParamsValidate_DuplicateStep(t *testing.T) {
	p := Params{Steps: []string{StepPre, StepPre}, BatchSize: 1000, Mode: ModeIndex}
	require.Error(t, p.Validate())
}

func TestParamsValidate_UnknownStep(t *testing.T) {
	p := Params{Steps: []string{"bogus"}, BatchSize: 1000, Mode: ModeIndex}
	require.Error(t, p.Validate())
}

func TestParamsValidate_Accepts(t *testing.T) {
	p := Params{Steps: []string{StepPre, StepIndex, StepPost}, BatchSize: 10000, Mode: ModePurge}
	require.NoError(t, p.Validate())
}
