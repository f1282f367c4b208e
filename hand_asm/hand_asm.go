// hand_asm takes a filename and produces a bin file
// from parsing the input as a hand assembled file
// of the form:
//
// XXXX OP A1 A2
//
// Where XXXX is the address field and OP is the opcode
// A1,A2 are then optional params as needed. Lines not
// starting with a 4 digit hex address are skipped and
// anything after a tab or (*) is treated as commentary.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"
)

var (
	offset = flag.Int("offset", 0x0000, "Offset to start writing assembled data. Everything prior is zero filled.")
)

func isAddr(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 16)
	return err == nil
}

func main() {
	flag.Parse()
	if len(flag.Args()) != 2 {
		log.Fatalf("Invalid command: %s <input> <output>", os.Args[0])
	}
	fn := flag.Args()[0]
	out := flag.Args()[1]

	b, err := ioutil.ReadFile(fn)
	if err != nil {
		log.Fatalf("Can't open %q for input - %v", fn, err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var output []byte
	for i := 0; i < *offset; i++ {
		output = append(output, 0x00)
	}
	l := 0
	for scanner.Scan() {
		t := scanner.Text()
		l++
		if len(t) < 4 || !isAddr(t[:4]) {
			continue
		}
		// Strip trailing commentary.
		if i := strings.IndexAny(t, "\t"); i >= 0 {
			t = t[:i]
		}
		if i := strings.Index(t, "(*)"); i >= 0 {
			t = t[:i]
		}
		toks := strings.Fields(t)
		// Drop the address field leaving 1-3 data bytes.
		toks = toks[1:]
		if len(toks) == 0 || len(toks) > 3 {
			log.Fatalf("Invalid line %d - %q", l, t)
		}
		for _, v := range toks {
			b, err := strconv.ParseUint(v, 16, 8)
			if err != nil {
				log.Fatalf("Can't process input line %d %q - %v", l, t, err)
			}
			output = append(output, byte(b))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Error scanning %q - %v", fn, err)
	}
	if err := ioutil.WriteFile(out, output, 0644); err != nil {
		log.Fatalf("Got error writing to %q - %v", out, err)
	}
}
