// Package irq defines the basic interfaces for working
// with a 6502 family interrupt. A generator of interrupts (IRQ/NMI)
// implements Sender and gets installed on the component receiving
// them which polls the line at appropriate points. This avoids
// cross coupling component logic.
// NOTE: Even though chips make a distinction between level and edge type interrupts
//       the interfaces here don't matter and assume implementors simply account for
//       this in clock cycle management.
package irq

type Sender interface {
	// Raised indicates whether the interrupt is currently held high.
	Raised() bool
}
