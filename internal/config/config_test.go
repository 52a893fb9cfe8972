package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUTarget(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CPUTarget
		wantErr bool
	}{
		{name: "6502", input: "6502", want: CPU6502},
		{name: "65c02 lowercase", input: "65c02", want: CPU65C02},
		{name: "65C02 uppercase", input: "65C02", want: CPU65C02},
		{name: "unknown", input: "z80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCPUTarget(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCPUTargetGating(t *testing.T) {
	assert.False(t, CPU6502.HasStz())
	assert.False(t, CPU6502.HasBra())
	assert.True(t, CPU65C02.HasStz())
	assert.True(t, CPU65C02.HasBra())
}

func TestCPUTargetString(t *testing.T) {
	assert.Equal(t, "6502", CPU6502.String())
	assert.Equal(t, "65c02", CPU65C02.String())
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{name: "default empty", input: "", want: OutputAssembly},
		{name: "explicit assembly", input: "assembly", want: OutputAssembly},
		{name: "asm alias", input: "asm", want: OutputAssembly},
		{name: "ast", input: "ast", want: OutputAST},
		{name: "ir", input: "ir", want: OutputIR},
		{name: "unknown", input: "bytecode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := Default()
	assert.Equal(t, CPU6502, opts.CPU)
	assert.Equal(t, DefaultZeroPageBudget, opts.ZeroPageBudget)
	assert.Equal(t, OutputAssembly, opts.Output)
	assert.False(t, opts.Verbose)
}
