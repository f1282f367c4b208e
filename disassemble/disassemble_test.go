package disassemble

import "testing"

type flatMemory struct {
	addr [65536]uint8
}

func (r *flatMemory) Read(addr uint16) uint8 {
	return r.addr[addr]
}

func (r *flatMemory) Write(addr uint16, val uint8) {
	r.addr[addr] = val
}

func (r *flatMemory) PowerOn() {}

func TestStep(t *testing.T) {
	tests := []struct {
		name      string
		pc        uint16
		bytes     []uint8
		want      string
		wantCount int
	}{
		{
			name:      "Immediate",
			pc:        0x1000,
			bytes:     []uint8{0xA9, 0x80},
			want:      "1000 A9 80      LDA #80       ",
			wantCount: 2,
		},
		{
			name:      "Zero page X",
			pc:        0x0000,
			bytes:     []uint8{0xB5, 0x40},
			want:      "0000 B5 40      LDA 40,X      ",
			wantCount: 2,
		},
		{
			name:      "Indirect X",
			pc:        0x0000,
			bytes:     []uint8{0xA1, 0x40},
			want:      "0000 A1 40      LDA (40,X)    ",
			wantCount: 2,
		},
		{
			name:      "Absolute",
			pc:        0x0010,
			bytes:     []uint8{0xAD, 0x34, 0x12},
			want:      "0010 AD 34 12   LDA 1234      ",
			wantCount: 3,
		},
		{
			name:      "Absolute X",
			pc:        0x0010,
			bytes:     []uint8{0xBD, 0x34, 0x12},
			want:      "0010 BD 34 12   LDA 1234,X    ",
			wantCount: 3,
		},
		{
			name:      "Indirect",
			pc:        0x2000,
			bytes:     []uint8{0x6C, 0xFF, 0x12},
			want:      "2000 6C FF 12   JMP (12FF)    ",
			wantCount: 3,
		},
		{
			name:      "Implied",
			pc:        0x0000,
			bytes:     []uint8{0xEA},
			want:      "0000 EA         NOP           ",
			wantCount: 1,
		},
		{
			name:      "Relative backwards",
			pc:        0x1000,
			bytes:     []uint8{0x10, 0xF0},
			want:      "1000 10 F0      BPL F0 (0FF2) ",
			wantCount: 2,
		},
		{
			name:      "Undocumented byte",
			pc:        0x0005,
			bytes:     []uint8{0x02},
			want:      "0005 02         ???           ",
			wantCount: 1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &flatMemory{}
			copy(r.addr[test.pc:], test.bytes)
			got, count := Step(test.pc, r)
			if got != test.want {
				t.Errorf("Got %q and want %q", got, test.want)
			}
			if got, want := count, test.wantCount; got != want {
				t.Errorf("Got count %d and want %d", got, want)
			}
		})
	}
}

func TestTableCoversDocumentedSet(t *testing.T) {
	documented := 0
	for _, e := range opcodes {
		if e.op != "" {
			documented++
		}
	}
	if got, want := documented, 151; got != want {
		t.Errorf("Got %d documented opcodes and want %d", got, want)
	}
}
