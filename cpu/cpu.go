// Package cpu defines the 6502 architecture and provides
// the methods needed to run the CPU and interface with it
// for emulation.
package cpu

import (
	"fmt"

	"github.com/famicore/mos6502/irq"
	"github.com/famicore/mos6502/memory"
)

// CPUType is an enumeration of the valid CPU types.
type CPUType int

const (
	CPU_UNIMPLMENTED CPUType = iota // Start of valid cpu enumerations.
	CPU_NMOS                        // Basic NMOS 6502 with documented opcodes only.
	CPU_NMOS_RICOH                  // Ricoh version used in NES which is identical to NMOS except BCD mode is unimplmented.
	CPU_MAX                         // End of CPU enumerations.
)

const (
	NMI_VECTOR   = uint16(0xFFFA)
	RESET_VECTOR = uint16(0xFFFC)
	IRQ_VECTOR   = uint16(0xFFFE)

	P_NEGATIVE  = uint8(0x80)
	P_OVERFLOW  = uint8(0x40)
	P_S1        = uint8(0x20) // Always 1
	P_B         = uint8(0x10) // Only set during BRK. Cleared on all other interrupts.
	P_DECIMAL   = uint8(0x8)
	P_INTERRUPT = uint8(0x4)
	P_ZERO      = uint8(0x2)
	P_CARRY     = uint8(0x1)

	// The stack is a fixed page with S supplying the low byte.
	STACK_PAGE = uint16(0x0100)

	// Cycles to run an IRQ/NMI sequence (same as BRK).
	INTERRUPT_CYCLES = uint64(7)
)

type Processor struct {
	A          uint8   // Accumulator register
	X          uint8   // X register
	Y          uint8   // Y register
	S          uint8   // Stack pointer
	P          uint8   // Processor status register
	PC         uint16  // Program counter
	CPUType    CPUType // Must be between UNIMPLEMENTED and MAX from above.
	Ram        memory.Bank
	irqLine    irq.Sender // Optional IRQ line, polled between instructions.
	nmiLine    irq.Sender // Optional NMI line, polled between instructions.
	halted     bool       // If stopped due to an opcode we can't run.
	haltOpcode uint8      // Opcode that caused the halt
}

// A few custom error types to distinguish why the CPU stopped

// UnimplementedOpcode represents an opcode with no entry in the decode
// table. Executing an opcode with unknown semantics would silently corrupt
// state so the CPU halts instead.
type UnimplementedOpcode struct {
	Opcode uint8
}

// Error implements the interface for error types.
func (e UnimplementedOpcode) Error() string {
	return fmt.Sprintf("0x%.2X is an unimplemented opcode", e.Opcode)
}

// HaltOpcode represents the steady state after an undefined opcode stopped
// the CPU. All further Step calls return this.
type HaltOpcode struct {
	Opcode uint8
}

// Error implements the interface for error types.
func (e HaltOpcode) Error() string {
	return fmt.Sprintf("HALT(0x%.2X) executed", e.Opcode)
}

// Init will create a new CPU of the type requested and return it in powered on state.
// The memory passed in will also be powered on.
func Init(cpu CPUType, r memory.Bank) (*Processor, error) {
	if cpu <= CPU_UNIMPLMENTED || cpu >= CPU_MAX {
		return nil, fmt.Errorf("CPU type value %d is invalid", cpu)
	}
	p := &Processor{
		CPUType: cpu,
		Ram:     r,
	}
	p.Ram.PowerOn()
	p.PowerOn()
	return p, nil
}

// PowerOn will reset the CPU to specific power on state. Registers are zero, stack is at 0xFD
// and P is cleared with interrupts disabled. The starting PC value is loaded from the reset
// vector.
func (p *Processor) PowerOn() {
	p.A = 0
	p.X = 0
	p.Y = 0
	p.S = 0x0
	// This bit is always set.
	p.P = P_S1
	p.Reset()
}

// Reset is similar to PowerOn except the main registers are not touched. The stack is moved
// 3 bytes as if PC/P have been pushed. Flags are not disturbed except for interrupts being
// disabled and the PC is loaded from the reset vector.
func (p *Processor) Reset() {
	// Most registers unaffected but stack acts like PC/P have been pushed so decrement by 3 bytes.
	p.S -= 3
	// Disable interrupts
	p.P |= P_INTERRUPT
	// Load PC from reset vector
	p.PC = p.readAddr(RESET_VECTOR)
	p.halted = false
	p.haltOpcode = 0x00
}

// InstallIRQ attaches the given sender to the IRQ line. The line is polled
// before each instruction and serviced when raised unless interrupts are
// disabled.
func (p *Processor) InstallIRQ(s irq.Sender) {
	p.irqLine = s
}

// InstallNMI attaches the given sender to the NMI line. NMI cannot be masked.
func (p *Processor) InstallNMI(s irq.Sender) {
	p.nmiLine = s
}

// Step runs one instruction to completion and returns the clock cycles it
// consumed so the caller can drive emulated time. A raised interrupt line is
// serviced first and counts as its own step; the next call then executes the
// first handler instruction. An opcode without a decode entry halts the CPU
// and the halt is sticky, i.e. further calls keep returning an error with no
// state change. Identical register/memory state always produces identical
// mutations and cycle counts, there is no hidden state beyond Processor.
func (p *Processor) Step() (uint64, error) {
	if p.halted {
		return 0, HaltOpcode{p.haltOpcode}
	}

	if p.nmiLine != nil && p.nmiLine.Raised() {
		p.runInterrupt(NMI_VECTOR)
		return INTERRUPT_CYCLES, nil
	}
	if p.irqLine != nil && p.irqLine.Raised() && (p.P&P_INTERRUPT) == 0x00 {
		p.runInterrupt(IRQ_VECTOR)
		return INTERRUPT_CYCLES, nil
	}

	op := p.Ram.Read(p.PC)
	p.PC++

	cycles, ok := p.processOpcode(op)
	if !ok {
		p.halted = true
		p.haltOpcode = op
		return 0, UnimplementedOpcode{op}
	}
	return cycles, nil
}

// processOpcode decodes and executes a single opcode with the PC already
// advanced past the opcode byte. It returns the total cycle count (base cost
// plus any page crossing penalty accumulated during addressing) and whether
// the opcode had a decode entry at all.
// Base costs follow the standard NMOS timing table. Indexed stores and
// read-modify-write instructions always pay the fixup cycle so they never
// take a separate crossing penalty.
func (p *Processor) processOpcode(op uint8) (uint64, bool) {
	var cycles uint64

	switch op {
	case 0x00: // BRK
		p.iBRK()
		cycles = 7
	case 0x01: // ORA (d,X)
		p.loadRegister(&p.A, p.A|p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0x05: // ORA d
		p.loadRegister(&p.A, p.A|p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0x06: // ASL d
		p.iASL(p.addrZP())
		cycles = 5
	case 0x08: // PHP
		p.iPHP()
		cycles = 3
	case 0x09: // ORA #i
		p.loadRegister(&p.A, p.A|p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0x0A: // ASL
		p.iASLAcc()
		cycles = 2
	case 0x0D: // ORA a
		p.loadRegister(&p.A, p.A|p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0x0E: // ASL a
		p.iASL(p.addrAbsolute())
		cycles = 6
	case 0x10: // BPL r
		cycles = 2 + p.branch(p.P&P_NEGATIVE == 0x00)
	case 0x11: // ORA (d),Y
		addr, penalty := p.addrIndirectY()
		p.loadRegister(&p.A, p.A|p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0x15: // ORA d,X
		p.loadRegister(&p.A, p.A|p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0x16: // ASL d,X
		p.iASL(p.addrZPX())
		cycles = 6
	case 0x18: // CLC
		p.P &^= P_CARRY
		cycles = 2
	case 0x19: // ORA a,Y
		addr, penalty := p.addrAbsoluteY()
		p.loadRegister(&p.A, p.A|p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x1D: // ORA a,X
		addr, penalty := p.addrAbsoluteX()
		p.loadRegister(&p.A, p.A|p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x1E: // ASL a,X
		addr, _ := p.addrAbsoluteX()
		p.iASL(addr)
		cycles = 7
	case 0x20: // JSR a
		p.iJSR()
		cycles = 6
	case 0x21: // AND (d,X)
		p.loadRegister(&p.A, p.A&p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0x24: // BIT d
		p.iBIT(p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0x25: // AND d
		p.loadRegister(&p.A, p.A&p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0x26: // ROL d
		p.iROL(p.addrZP())
		cycles = 5
	case 0x28: // PLP
		p.iPLP()
		cycles = 4
	case 0x29: // AND #i
		p.loadRegister(&p.A, p.A&p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0x2A: // ROL
		p.iROLAcc()
		cycles = 2
	case 0x2C: // BIT a
		p.iBIT(p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0x2D: // AND a
		p.loadRegister(&p.A, p.A&p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0x2E: // ROL a
		p.iROL(p.addrAbsolute())
		cycles = 6
	case 0x30: // BMI r
		cycles = 2 + p.branch(p.P&P_NEGATIVE != 0x00)
	case 0x31: // AND (d),Y
		addr, penalty := p.addrIndirectY()
		p.loadRegister(&p.A, p.A&p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0x35: // AND d,X
		p.loadRegister(&p.A, p.A&p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0x36: // ROL d,X
		p.iROL(p.addrZPX())
		cycles = 6
	case 0x38: // SEC
		p.P |= P_CARRY
		cycles = 2
	case 0x39: // AND a,Y
		addr, penalty := p.addrAbsoluteY()
		p.loadRegister(&p.A, p.A&p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x3D: // AND a,X
		addr, penalty := p.addrAbsoluteX()
		p.loadRegister(&p.A, p.A&p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x3E: // ROL a,X
		addr, _ := p.addrAbsoluteX()
		p.iROL(addr)
		cycles = 7
	case 0x40: // RTI
		p.iRTI()
		cycles = 6
	case 0x41: // EOR (d,X)
		p.loadRegister(&p.A, p.A^p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0x45: // EOR d
		p.loadRegister(&p.A, p.A^p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0x46: // LSR d
		p.iLSR(p.addrZP())
		cycles = 5
	case 0x48: // PHA
		p.pushStack(p.A)
		cycles = 3
	case 0x49: // EOR #i
		p.loadRegister(&p.A, p.A^p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0x4A: // LSR
		p.iLSRAcc()
		cycles = 2
	case 0x4C: // JMP a
		p.PC = p.addrAbsolute()
		cycles = 3
	case 0x4D: // EOR a
		p.loadRegister(&p.A, p.A^p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0x4E: // LSR a
		p.iLSR(p.addrAbsolute())
		cycles = 6
	case 0x50: // BVC r
		cycles = 2 + p.branch(p.P&P_OVERFLOW == 0x00)
	case 0x51: // EOR (d),Y
		addr, penalty := p.addrIndirectY()
		p.loadRegister(&p.A, p.A^p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0x55: // EOR d,X
		p.loadRegister(&p.A, p.A^p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0x56: // LSR d,X
		p.iLSR(p.addrZPX())
		cycles = 6
	case 0x58: // CLI
		p.P &^= P_INTERRUPT
		cycles = 2
	case 0x59: // EOR a,Y
		addr, penalty := p.addrAbsoluteY()
		p.loadRegister(&p.A, p.A^p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x5D: // EOR a,X
		addr, penalty := p.addrAbsoluteX()
		p.loadRegister(&p.A, p.A^p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x5E: // LSR a,X
		addr, _ := p.addrAbsoluteX()
		p.iLSR(addr)
		cycles = 7
	case 0x60: // RTS
		p.iRTS()
		cycles = 6
	case 0x61: // ADC (d,X)
		p.iADC(p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0x65: // ADC d
		p.iADC(p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0x66: // ROR d
		p.iROR(p.addrZP())
		cycles = 5
	case 0x68: // PLA
		p.loadRegister(&p.A, p.popStack())
		cycles = 4
	case 0x69: // ADC #i
		p.iADC(p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0x6A: // ROR
		p.iRORAcc()
		cycles = 2
	case 0x6C: // JMP (a)
		p.PC = p.addrIndirect()
		cycles = 5
	case 0x6D: // ADC a
		p.iADC(p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0x6E: // ROR a
		p.iROR(p.addrAbsolute())
		cycles = 6
	case 0x70: // BVS r
		cycles = 2 + p.branch(p.P&P_OVERFLOW != 0x00)
	case 0x71: // ADC (d),Y
		addr, penalty := p.addrIndirectY()
		p.iADC(p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0x75: // ADC d,X
		p.iADC(p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0x76: // ROR d,X
		p.iROR(p.addrZPX())
		cycles = 6
	case 0x78: // SEI
		p.P |= P_INTERRUPT
		cycles = 2
	case 0x79: // ADC a,Y
		addr, penalty := p.addrAbsoluteY()
		p.iADC(p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x7D: // ADC a,X
		addr, penalty := p.addrAbsoluteX()
		p.iADC(p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0x7E: // ROR a,X
		addr, _ := p.addrAbsoluteX()
		p.iROR(addr)
		cycles = 7
	case 0x81: // STA (d,X)
		p.Ram.Write(p.addrIndirectX(), p.A)
		cycles = 6
	case 0x84: // STY d
		p.Ram.Write(p.addrZP(), p.Y)
		cycles = 3
	case 0x85: // STA d
		p.Ram.Write(p.addrZP(), p.A)
		cycles = 3
	case 0x86: // STX d
		p.Ram.Write(p.addrZP(), p.X)
		cycles = 3
	case 0x88: // DEY
		p.loadRegister(&p.Y, p.Y-1)
		cycles = 2
	case 0x8A: // TXA
		p.loadRegister(&p.A, p.X)
		cycles = 2
	case 0x8C: // STY a
		p.Ram.Write(p.addrAbsolute(), p.Y)
		cycles = 4
	case 0x8D: // STA a
		p.Ram.Write(p.addrAbsolute(), p.A)
		cycles = 4
	case 0x8E: // STX a
		p.Ram.Write(p.addrAbsolute(), p.X)
		cycles = 4
	case 0x90: // BCC r
		cycles = 2 + p.branch(p.P&P_CARRY == 0x00)
	case 0x91: // STA (d),Y
		// Stores always pay the fixup cycle, no conditional penalty.
		addr, _ := p.addrIndirectY()
		p.Ram.Write(addr, p.A)
		cycles = 6
	case 0x94: // STY d,X
		p.Ram.Write(p.addrZPX(), p.Y)
		cycles = 4
	case 0x95: // STA d,X
		p.Ram.Write(p.addrZPX(), p.A)
		cycles = 4
	case 0x96: // STX d,Y
		p.Ram.Write(p.addrZPY(), p.X)
		cycles = 4
	case 0x98: // TYA
		p.loadRegister(&p.A, p.Y)
		cycles = 2
	case 0x99: // STA a,Y
		addr, _ := p.addrAbsoluteY()
		p.Ram.Write(addr, p.A)
		cycles = 5
	case 0x9A: // TXS
		// The only transfer that doesn't touch flags.
		p.S = p.X
		cycles = 2
	case 0x9D: // STA a,X
		addr, _ := p.addrAbsoluteX()
		p.Ram.Write(addr, p.A)
		cycles = 5
	case 0xA0: // LDY #i
		p.loadRegister(&p.Y, p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xA1: // LDA (d,X)
		p.loadRegister(&p.A, p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0xA2: // LDX #i
		p.loadRegister(&p.X, p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xA4: // LDY d
		p.loadRegister(&p.Y, p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xA5: // LDA d
		p.loadRegister(&p.A, p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xA6: // LDX d
		p.loadRegister(&p.X, p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xA8: // TAY
		p.loadRegister(&p.Y, p.A)
		cycles = 2
	case 0xA9: // LDA #i
		p.loadRegister(&p.A, p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xAA: // TAX
		p.loadRegister(&p.X, p.A)
		cycles = 2
	case 0xAC: // LDY a
		p.loadRegister(&p.Y, p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xAD: // LDA a
		p.loadRegister(&p.A, p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xAE: // LDX a
		p.loadRegister(&p.X, p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xB0: // BCS r
		cycles = 2 + p.branch(p.P&P_CARRY != 0x00)
	case 0xB1: // LDA (d),Y
		addr, penalty := p.addrIndirectY()
		p.loadRegister(&p.A, p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0xB4: // LDY d,X
		p.loadRegister(&p.Y, p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0xB5: // LDA d,X
		p.loadRegister(&p.A, p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0xB6: // LDX d,Y
		p.loadRegister(&p.X, p.Ram.Read(p.addrZPY()))
		cycles = 4
	case 0xB8: // CLV
		p.P &^= P_OVERFLOW
		cycles = 2
	case 0xB9: // LDA a,Y
		addr, penalty := p.addrAbsoluteY()
		p.loadRegister(&p.A, p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xBA: // TSX
		p.loadRegister(&p.X, p.S)
		cycles = 2
	case 0xBC: // LDY a,X
		addr, penalty := p.addrAbsoluteX()
		p.loadRegister(&p.Y, p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xBD: // LDA a,X
		addr, penalty := p.addrAbsoluteX()
		p.loadRegister(&p.A, p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xBE: // LDX a,Y
		addr, penalty := p.addrAbsoluteY()
		p.loadRegister(&p.X, p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xC0: // CPY #i
		p.compare(p.Y, p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xC1: // CMP (d,X)
		p.compare(p.A, p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0xC4: // CPY d
		p.compare(p.Y, p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xC5: // CMP d
		p.compare(p.A, p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xC6: // DEC d
		p.iDEC(p.addrZP())
		cycles = 5
	case 0xC8: // INY
		p.loadRegister(&p.Y, p.Y+1)
		cycles = 2
	case 0xC9: // CMP #i
		p.compare(p.A, p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xCA: // DEX
		p.loadRegister(&p.X, p.X-1)
		cycles = 2
	case 0xCC: // CPY a
		p.compare(p.Y, p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xCD: // CMP a
		p.compare(p.A, p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xCE: // DEC a
		p.iDEC(p.addrAbsolute())
		cycles = 6
	case 0xD0: // BNE r
		cycles = 2 + p.branch(p.P&P_ZERO == 0x00)
	case 0xD1: // CMP (d),Y
		addr, penalty := p.addrIndirectY()
		p.compare(p.A, p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0xD5: // CMP d,X
		p.compare(p.A, p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0xD6: // DEC d,X
		p.iDEC(p.addrZPX())
		cycles = 6
	case 0xD8: // CLD
		p.P &^= P_DECIMAL
		cycles = 2
	case 0xD9: // CMP a,Y
		addr, penalty := p.addrAbsoluteY()
		p.compare(p.A, p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xDD: // CMP a,X
		addr, penalty := p.addrAbsoluteX()
		p.compare(p.A, p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xDE: // DEC a,X
		addr, _ := p.addrAbsoluteX()
		p.iDEC(addr)
		cycles = 7
	case 0xE0: // CPX #i
		p.compare(p.X, p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xE1: // SBC (d,X)
		p.iSBC(p.Ram.Read(p.addrIndirectX()))
		cycles = 6
	case 0xE4: // CPX d
		p.compare(p.X, p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xE5: // SBC d
		p.iSBC(p.Ram.Read(p.addrZP()))
		cycles = 3
	case 0xE6: // INC d
		p.iINC(p.addrZP())
		cycles = 5
	case 0xE8: // INX
		p.loadRegister(&p.X, p.X+1)
		cycles = 2
	case 0xE9: // SBC #i
		p.iSBC(p.Ram.Read(p.addrImmediate()))
		cycles = 2
	case 0xEA: // NOP
		cycles = 2
	case 0xEC: // CPX a
		p.compare(p.X, p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xED: // SBC a
		p.iSBC(p.Ram.Read(p.addrAbsolute()))
		cycles = 4
	case 0xEE: // INC a
		p.iINC(p.addrAbsolute())
		cycles = 6
	case 0xF0: // BEQ r
		cycles = 2 + p.branch(p.P&P_ZERO != 0x00)
	case 0xF1: // SBC (d),Y
		addr, penalty := p.addrIndirectY()
		p.iSBC(p.Ram.Read(addr))
		cycles = 5 + penalty
	case 0xF5: // SBC d,X
		p.iSBC(p.Ram.Read(p.addrZPX()))
		cycles = 4
	case 0xF6: // INC d,X
		p.iINC(p.addrZPX())
		cycles = 6
	case 0xF8: // SED
		p.P |= P_DECIMAL
		cycles = 2
	case 0xF9: // SBC a,Y
		addr, penalty := p.addrAbsoluteY()
		p.iSBC(p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xFD: // SBC a,X
		addr, penalty := p.addrAbsoluteX()
		p.iSBC(p.Ram.Read(addr))
		cycles = 4 + penalty
	case 0xFE: // INC a,X
		addr, _ := p.addrAbsoluteX()
		p.iINC(addr)
		cycles = 7
	default:
		return 0, false
	}
	return cycles, true
}

// readAddr reads the 16 bit little endian address stored at addr.
func (p *Processor) readAddr(addr uint16) uint16 {
	return (uint16(p.Ram.Read(addr+1)) << 8) + uint16(p.Ram.Read(addr))
}

// crossingPenalty returns the extra cycle charged when an indexed or
// relative computation lands the effective address on a different page than
// the base, i.e. the high byte changed.
func crossingPenalty(base uint16, addr uint16) uint64 {
	if (base & 0xFF00) != (addr & 0xFF00) {
		return 1
	}
	return 0
}

// addrImmediate consumes the operand byte following the opcode and returns
// its address, i.e. the PC value before advancing it.
func (p *Processor) addrImmediate() uint16 {
	addr := p.PC
	p.PC++
	return addr
}

// addrZP implements zero page mode - d
func (p *Processor) addrZP() uint16 {
	addr := uint16(p.Ram.Read(p.PC))
	p.PC++
	return addr
}

// addrZPX implements zero page plus X mode - d,X
// Indexing wraps within page 0 and never carries into the next page.
func (p *Processor) addrZPX() uint16 {
	addr := uint16(p.Ram.Read(p.PC) + p.X)
	p.PC++
	return addr
}

// addrZPY implements zero page plus Y mode - d,Y
func (p *Processor) addrZPY() uint16 {
	addr := uint16(p.Ram.Read(p.PC) + p.Y)
	p.PC++
	return addr
}

// addrIndirectX implements indexed indirect mode - (d,X)
// The pointer itself and both bytes read through it stay in page 0.
func (p *Processor) addrIndirectX() uint16 {
	ptr := p.Ram.Read(p.PC) + p.X
	p.PC++
	return (uint16(p.Ram.Read(uint16(ptr+1))) << 8) + uint16(p.Ram.Read(uint16(ptr)))
}

// addrIndirectY implements indirect indexed mode - (d),Y
// Y is added to the base read through the zero page pointer with the carry
// propagating into the high byte. Reports the page crossing penalty.
func (p *Processor) addrIndirectY() (uint16, uint64) {
	ptr := p.Ram.Read(p.PC)
	p.PC++
	base := (uint16(p.Ram.Read(uint16(ptr+1))) << 8) + uint16(p.Ram.Read(uint16(ptr)))
	addr := base + uint16(p.Y)
	return addr, crossingPenalty(base, addr)
}

// addrAbsolute implements absolute mode - a
func (p *Processor) addrAbsolute() uint16 {
	addr := p.readAddr(p.PC)
	p.PC += 2
	return addr
}

// addrAbsoluteX implements absolute plus X mode - a,X
// Reports the page crossing penalty.
func (p *Processor) addrAbsoluteX() (uint16, uint64) {
	base := p.addrAbsolute()
	addr := base + uint16(p.X)
	return addr, crossingPenalty(base, addr)
}

// addrAbsoluteY implements absolute plus Y mode - a,Y
func (p *Processor) addrAbsoluteY() (uint16, uint64) {
	base := p.addrAbsolute()
	addr := base + uint16(p.Y)
	return addr, crossingPenalty(base, addr)
}

// addrIndirect implements indirect mode - (a) - which only JMP uses.
// This reproduces the NMOS bug: a pointer ending in 0xFF reads the high
// byte of the target from the start of the same page rather than carrying
// into the next one.
func (p *Processor) addrIndirect() uint16 {
	base := p.addrAbsolute()
	lo := p.Ram.Read(base)
	hi := p.Ram.Read((base & 0xFF00) + ((base + 1) & 0x00FF))
	return (uint16(hi) << 8) + uint16(lo)
}

// addrRelative consumes the signed branch offset and returns the branch
// target computed off the post increment PC along with the page crossing
// penalty. The PC is left pointing at the next instruction; taken branches
// assign the target themselves.
func (p *Processor) addrRelative() (uint16, uint64) {
	offset := p.Ram.Read(p.PC)
	p.PC++
	addr := p.PC + uint16(int16(int8(offset)))
	return addr, crossingPenalty(p.PC, addr)
}

// zeroCheck sets the Z flag based on the register contents.
func (p *Processor) zeroCheck(reg uint8) {
	if reg == 0 {
		p.P |= P_ZERO
	} else {
		p.P &^= P_ZERO
	}
}

// negativeCheck sets the N flag based on the register contents.
func (p *Processor) negativeCheck(reg uint8) {
	if (reg & P_NEGATIVE) == 0x80 {
		p.P |= P_NEGATIVE
	} else {
		p.P &^= P_NEGATIVE
	}
}

// carryCheck sets the C flag if the result of an 8 bit ALU operation
// (passed as a 16 bit result) caused a carry out by generating a value >= 0x100.
// NOTE: normally this just means masking 0x100 but in some overflow cases for BCD
//       math the value can be 0x200 here so it's still a carry.
func (p *Processor) carryCheck(res uint16) {
	if res >= 0x100 {
		p.P |= P_CARRY
	} else {
		p.P &^= P_CARRY
	}
}

// overflowCheck sets the V flag if the result of the ALU operation
// caused a two's complement sign change.
// Taken from http://www.righto.com/2012/12/the-6502-overflow-flag-explained.html
func (p *Processor) overflowCheck(reg uint8, arg uint8, res uint8) {
	// If the originals signs differ from the end sign bit
	if (reg^res)&(arg^res)&0x80 != 0x00 {
		p.P |= P_OVERFLOW
	} else {
		p.P &^= P_OVERFLOW
	}
}

// loadRegister takes the val and inserts it into the register passed in.
// It then does Z and N checks against the new value.
func (p *Processor) loadRegister(reg *uint8, val uint8) {
	*reg = val
	p.zeroCheck(*reg)
	p.negativeCheck(*reg)
}

// pushStack pushes the given byte onto the stack and adjusts the stack pointer accordingly.
// S always points one slot past the last pushed byte and wraps silently.
func (p *Processor) pushStack(val uint8) {
	p.Ram.Write(STACK_PAGE+uint16(p.S), val)
	p.S--
}

// popStack pops the top byte off the stack and adjusts the stack pointer accordingly.
func (p *Processor) popStack() uint8 {
	p.S++
	return p.Ram.Read(STACK_PAGE + uint16(p.S))
}

// branch consumes the relative operand and moves the PC when taken,
// returning the cycles to add to the base cost: one for taking the branch
// plus one more if the target sits on a different page than the instruction
// following the branch.
func (p *Processor) branch(taken bool) uint64 {
	addr, penalty := p.addrRelative()
	if !taken {
		return 0
	}
	p.PC = addr
	return 1 + penalty
}

// runInterrupt does the heavy lifting for hardware interrupt processing,
// pushing PC/P and loading the PC through the given vector. The B bit is
// never set in the pushed copy for a hardware interrupt.
func (p *Processor) runInterrupt(vector uint16) {
	p.pushStack(uint8(p.PC >> 8))
	p.pushStack(uint8(p.PC & 0xFF))
	p.pushStack((p.P | P_S1) &^ P_B)
	p.P |= P_INTERRUPT
	p.PC = p.readAddr(vector)
}

// iADC implements the ADC instruction and sets all associated flags.
func (p *Processor) iADC(arg uint8) {
	// Pull the carry bit out which thankfully is the low bit so can be
	// used directly.
	carry := p.P & P_CARRY

	// The Ricoh version didn't implement BCD (used in NES)
	if (p.P&P_DECIMAL) != 0x00 && p.CPUType != CPU_NMOS_RICOH {
		// BCD details - http://6502.org/tutorials/decimal_mode.html
		// Also http://nesdev.com/6502_cpu.txt but it has errors
		aL := (p.A & 0x0F) + (arg & 0x0F) + carry
		// Low nibble fixup
		if aL >= 0x0A {
			aL = ((aL + 0x06) & 0x0F) + 0x10
		}
		sum := uint16(p.A&0xF0) + uint16(arg&0xF0) + uint16(aL)
		// High nibble fixup
		if sum >= 0xA0 {
			sum += 0x60
		}
		res := uint8(sum & 0xFF)
		seq := (p.A & 0xF0) + (arg & 0xF0) + aL
		bin := p.A + arg + carry
		p.overflowCheck(p.A, arg, seq)
		p.carryCheck(sum)
		p.negativeCheck(seq)
		p.zeroCheck(bin)
		p.A = res
		return
	}

	// Otherwise do normal binary math.
	sum := p.A + arg + carry
	p.overflowCheck(p.A, arg, sum)
	// Yes, could do bit checks here like the hardware but
	// just treating as uint16 math is simpler to code.
	p.carryCheck(uint16(p.A) + uint16(arg) + uint16(carry))

	// Now set the accumulator so the other flag checks are against the result.
	p.loadRegister(&p.A, sum)
}

// iSBC implements the SBC instruction for both binary and BCD modes (if
// implemented) and sets all associated flags.
func (p *Processor) iSBC(arg uint8) {
	// The Ricoh version didn't implement BCD (used in NES)
	if (p.P&P_DECIMAL) != 0x00 && p.CPUType != CPU_NMOS_RICOH {
		// Pull the carry bit out which thankfully is the low bit so can be
		// used directly.
		carry := p.P & P_CARRY

		// BCD details - http://6502.org/tutorials/decimal_mode.html
		// Also http://nesdev.com/6502_cpu.txt but it has errors
		aL := int8(p.A&0x0F) - int8(arg&0x0F) + int8(carry) - 1
		// Low nibble fixup
		if aL < 0 {
			aL = ((aL - 0x06) & 0x0F) - 0x10
		}
		sum := int16(p.A&0xF0) - int16(arg&0xF0) + int16(aL)
		// High nibble fixup
		if sum < 0x0000 {
			sum -= 0x60
		}
		res := uint8(sum & 0xFF)

		// Do normal binary math to set C,N,Z
		b := p.A + ^arg + carry
		p.overflowCheck(p.A, ^arg, b)
		p.negativeCheck(b)
		// Yes, could do bit checks here like the hardware but
		// just treating as uint16 math is simpler to code.
		p.carryCheck(uint16(p.A) + uint16(^arg) + uint16(carry))
		p.zeroCheck(b)
		p.A = res
		return
	}

	// Otherwise binary mode is just ones complement the arg and ADC.
	p.iADC(^arg)
}

// iASLAcc implements the ASL instruction directly on the accumulator.
func (p *Processor) iASLAcc() {
	p.carryCheck(uint16(p.A) << 1)
	p.loadRegister(&p.A, p.A<<1)
}

// iASL implements the ASL instruction on the given memory location.
func (p *Processor) iASL(addr uint16) {
	val := p.Ram.Read(addr)
	new := val << 1
	p.Ram.Write(addr, new)
	p.carryCheck(uint16(val) << 1)
	p.zeroCheck(new)
	p.negativeCheck(new)
}

// iLSRAcc implements the LSR instruction directly on the accumulator.
func (p *Processor) iLSRAcc() {
	// Get bit0 from A but in a 16 bit value and then shift it up into
	// the carry position
	p.carryCheck(uint16(p.A&0x01) << 8)
	p.loadRegister(&p.A, p.A>>1)
}

// iLSR implements the LSR instruction on the given memory location.
func (p *Processor) iLSR(addr uint16) {
	val := p.Ram.Read(addr)
	new := val >> 1
	p.Ram.Write(addr, new)
	// Get bit0 from orig but in a 16 bit value and then shift it up into
	// the carry position
	p.carryCheck(uint16(val&0x01) << 8)
	p.zeroCheck(new)
	p.negativeCheck(new)
}

// iROLAcc implements the ROL instruction directly on the accumulator.
func (p *Processor) iROLAcc() {
	carry := p.P & P_CARRY
	p.carryCheck(uint16(p.A) << 1)
	p.loadRegister(&p.A, (p.A<<1)|carry)
}

// iROL implements the ROL instruction on the given memory location.
func (p *Processor) iROL(addr uint16) {
	val := p.Ram.Read(addr)
	carry := p.P & P_CARRY
	new := (val << 1) | carry
	p.Ram.Write(addr, new)
	p.carryCheck(uint16(val) << 1)
	p.zeroCheck(new)
	p.negativeCheck(new)
}

// iRORAcc implements the ROR instruction directly on the accumulator.
func (p *Processor) iRORAcc() {
	carry := (p.P & P_CARRY) << 7
	// Old bit0 becomes the new carry.
	p.carryCheck(uint16(p.A&0x01) << 8)
	p.loadRegister(&p.A, (p.A>>1)|carry)
}

// iROR implements the ROR instruction on the given memory location.
func (p *Processor) iROR(addr uint16) {
	val := p.Ram.Read(addr)
	carry := (p.P & P_CARRY) << 7
	new := (val >> 1) | carry
	p.Ram.Write(addr, new)
	// Old bit0 becomes the new carry.
	p.carryCheck(uint16(val&0x01) << 8)
	p.zeroCheck(new)
	p.negativeCheck(new)
}

// iINC implements the INC instruction on the given memory location.
func (p *Processor) iINC(addr uint16) {
	new := p.Ram.Read(addr) + 1
	p.Ram.Write(addr, new)
	p.zeroCheck(new)
	p.negativeCheck(new)
}

// iDEC implements the DEC instruction on the given memory location.
func (p *Processor) iDEC(addr uint16) {
	new := p.Ram.Read(addr) - 1
	p.Ram.Write(addr, new)
	p.zeroCheck(new)
	p.negativeCheck(new)
}

// iBIT implements the BIT instruction for AND'ing against A
// and setting N/V based on the value.
func (p *Processor) iBIT(val uint8) {
	p.zeroCheck(p.A & val)
	p.negativeCheck(val)
	// Copy V from bit 6
	if val&P_OVERFLOW != 0x00 {
		p.P |= P_OVERFLOW
	} else {
		p.P &^= P_OVERFLOW
	}
}

// compare implements the logic for all CMP/CPX/CPY instructions and
// sets flags accordingly from the results.
func (p *Processor) compare(reg uint8, val uint8) {
	p.zeroCheck(reg - val)
	p.negativeCheck(reg - val)
	// A-M done as 2's complement addition by ones complement and add 1
	// This way we get valid sign extension and a carry bit test.
	p.carryCheck(uint16(reg) + uint16(^val) + uint16(1))
}

// iPHP implements the PHP instruction for pushing P onto the stack.
// The B and S1 bits are always set in the pushed copy.
func (p *Processor) iPHP() {
	p.pushStack(p.P | P_S1 | P_B)
}

// iPLP implements the PLP instruction and pops the stack into the flags.
func (p *Processor) iPLP() {
	// The actual flags register always has S1 set to one
	// and the B bit is never set in the register.
	p.P = (p.popStack() | P_S1) &^ P_B
}

// iJSR implements the JSR instruction for jumping to a subroutine.
// NOTE: The pushed PC points at the last byte of the JSR itself.
//       RTS handles this by adding one to the popped value.
func (p *Processor) iJSR() {
	addr := p.readAddr(p.PC)
	p.PC++
	p.pushStack(uint8(p.PC >> 8))
	p.pushStack(uint8(p.PC & 0xFF))
	p.PC = addr
}

// iRTS implements the RTS instruction and pops the PC off the stack adding one to it.
func (p *Processor) iRTS() {
	low := p.popStack()
	p.PC = (uint16(p.popStack()) << 8) + uint16(low) + 1
}

// iBRK implements the BRK instruction. The byte after BRK is padding which
// gets skipped so RTI returns past it. Unlike hardware interrupts the B bit
// is set in the pushed copy of P.
func (p *Processor) iBRK() {
	p.PC++
	p.pushStack(uint8(p.PC >> 8))
	p.pushStack(uint8(p.PC & 0xFF))
	p.pushStack(p.P | P_S1 | P_B)
	p.P |= P_INTERRUPT
	p.PC = p.readAddr(IRQ_VECTOR)
}

// iRTI implements the RTI instruction and pops the flags and PC off the
// stack for returning from an interrupt.
func (p *Processor) iRTI() {
	p.P = (p.popStack() | P_S1) &^ P_B
	low := p.popStack()
	p.PC = (uint16(p.popStack()) << 8) + uint16(low)
}
