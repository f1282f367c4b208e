// Package functionality does basic end-end verification
// of the 6502 variants with a simple memory map
package functionality

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/famicore/mos6502/cpu"
	"github.com/famicore/mos6502/disassemble"
)

// flatMemory implements the RAM interface
type flatMemory struct {
	addr      [65536]uint8
	fillValue uint8
}

func (r *flatMemory) Read(addr uint16) uint8 {
	return r.addr[addr]
}

func (r *flatMemory) Write(addr uint16, val uint8) {
	r.addr[addr] = val
}

const (
	RESET = uint16(0x1FFE)
	IRQ   = uint16(0xD001)
)

func (r *flatMemory) PowerOn() {
	for i := range r.addr {
		// Fill with continual bytes (likely NOPs)
		r.addr[i] = r.fillValue
	}
	// Setup vectors so we have differing bit patterns
	r.addr[cpu.RESET_VECTOR] = uint8(RESET & 0xFF)
	r.addr[cpu.RESET_VECTOR+1] = uint8((RESET & 0xFF00) >> 8)
	r.addr[cpu.IRQ_VECTOR] = uint8(IRQ & 0xFF)
	r.addr[cpu.IRQ_VECTOR+1] = uint8((IRQ & 0xFF00) >> 8)
}

// runUntilHalt steps the CPU collecting total cycles and a disassembly trace
// until an undocumented opcode halts it. Fails the test if the CPU is still
// running after maxSteps.
func runUntilHalt(t *testing.T, c *cpu.Processor, r *flatMemory, maxSteps int) (uint64, []string) {
	t.Helper()
	var total uint64
	var trace []string
	for i := 0; i < maxSteps; i++ {
		dis, _ := disassemble.Step(c.PC, r)
		cycles, err := c.Step()
		if err != nil {
			var unimp cpu.UnimplementedOpcode
			if !errors.As(err, &unimp) {
				t.Fatalf("Unexpected error on step %d - %v\n%s", i, err, spew.Sdump(c))
			}
			return total, trace
		}
		trace = append(trace, dis)
		total += cycles
	}
	t.Fatalf("CPU still running after %d steps\n%s", maxSteps, spew.Sdump(c))
	return 0, nil
}

// TestMultiplyLoop runs a small hand assembled program that computes 5*7 by
// repeated addition and verifies the result, the flow of control and the
// exact cycle total.
func TestMultiplyLoop(t *testing.T) {
	r := &flatMemory{fillValue: 0xEA} // NOP
	program := []uint8{
		0xA9, 0x00, // LDA #$00
		0xA2, 0x05, // LDX #$05
		0x18,       // CLC
		0x69, 0x07, // loop: ADC #$07
		0xCA,       // DEX
		0xD0, 0xFB, // BNE loop
		0x85, 0x00, // STA $00
		0x02, // undocumented, halts
	}
	c, err := cpu.Init(cpu.CPU_NMOS, r)
	if err != nil {
		t.Fatalf("Can't initialize cpu - %v", err)
	}
	copy(r.addr[RESET:], program)

	total, trace := runUntilHalt(t, c, r, 100)
	if got, want := c.A, uint8(35); got != want {
		t.Errorf("Got A %.2X and want %.2X\nTrace:\n%s", got, want, spew.Sdump(trace))
	}
	if got, want := r.addr[0x0000], uint8(35); got != want {
		t.Errorf("Got memory %.2X and want %.2X", got, want)
	}
	if got, want := c.X, uint8(0x00); got != want {
		t.Errorf("Got X %.2X and want %.2X", got, want)
	}
	// 3 setup instructions at 2 cycles, 4 taken loop passes at 7 and the
	// final pass at 6, then a 3 cycle store.
	if got, want := total, uint64(43); got != want {
		t.Errorf("Got %d total cycles and want %d\nTrace:\n%s", got, want, spew.Sdump(trace))
	}
}

// TestSubroutine verifies JSR/RTS across a subroutine that doubles A,
// including stack pointer restoration.
func TestSubroutine(t *testing.T) {
	r := &flatMemory{fillValue: 0xEA}
	program := []uint8{
		0xA9, 0x15, // LDA #$15
		0x20, 0x00, 0x30, // JSR $3000
		0x85, 0x10, // STA $10
		0x02, // undocumented, halts
	}
	sub := []uint8{
		0x0A, // ASL
		0x60, // RTS
	}
	c, err := cpu.Init(cpu.CPU_NMOS, r)
	if err != nil {
		t.Fatalf("Can't initialize cpu - %v", err)
	}
	copy(r.addr[RESET:], program)
	copy(r.addr[0x3000:], sub)
	s := c.S

	total, trace := runUntilHalt(t, c, r, 100)
	if got, want := r.addr[0x0010], uint8(0x2A); got != want {
		t.Errorf("Got memory %.2X and want %.2X\nTrace:\n%s", got, want, spew.Sdump(trace))
	}
	if got, want := c.S, s; got != want {
		t.Errorf("Got S %.2X and want %.2X", got, want)
	}
	// LDA 2 + JSR 6 + ASL 2 + RTS 6 + STA 3
	if got, want := total, uint64(19); got != want {
		t.Errorf("Got %d total cycles and want %d\nTrace:\n%s", got, want, spew.Sdump(trace))
	}
}

// TestBRKHandler runs a program that triggers BRK, handles it at the IRQ
// vector and resumes via RTI.
func TestBRKHandler(t *testing.T) {
	r := &flatMemory{fillValue: 0xEA}
	program := []uint8{
		0xA0, 0x01, // LDY #$01
		0x00, 0xFF, // BRK (padding byte skipped)
		0xC8,       // INY
		0x84, 0x20, // STY $20
		0x02, // undocumented, halts
	}
	handler := []uint8{
		0xC8, // INY
		0x40, // RTI
	}
	c, err := cpu.Init(cpu.CPU_NMOS, r)
	if err != nil {
		t.Fatalf("Can't initialize cpu - %v", err)
	}
	copy(r.addr[RESET:], program)
	copy(r.addr[IRQ:], handler)

	_, trace := runUntilHalt(t, c, r, 100)
	// Y incremented once in the handler and once after resuming.
	if got, want := r.addr[0x0020], uint8(0x03); got != want {
		t.Errorf("Got memory %.2X and want %.2X\nTrace:\n%s", got, want, spew.Sdump(trace))
	}
}

// TestRicohVariant verifies decimal mode is a no-op on the NES CPU while the
// same program produces BCD results on stock NMOS.
func TestRicohVariant(t *testing.T) {
	program := []uint8{
		0xF8,       // SED
		0x18,       // CLC
		0xA9, 0x19, // LDA #$19
		0x69, 0x01, // ADC #$01
		0x85, 0x30, // STA $30
		0x02, // undocumented, halts
	}
	tests := []struct {
		name string
		cpu  cpu.CPUType
		want uint8
	}{
		{"NMOS BCD", cpu.CPU_NMOS, 0x20},
		{"Ricoh binary", cpu.CPU_NMOS_RICOH, 0x1A},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &flatMemory{fillValue: 0xEA}
			c, err := cpu.Init(test.cpu, r)
			if err != nil {
				t.Fatalf("Can't initialize cpu - %v", err)
			}
			copy(r.addr[RESET:], program)
			_, trace := runUntilHalt(t, c, r, 100)
			if got, want := r.addr[0x0030], test.want; got != want {
				t.Errorf("Got memory %.2X and want %.2X\nTrace:\n%s", got, want, spew.Sdump(trace))
			}
		})
	}
}
