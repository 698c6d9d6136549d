package hw

// AddrMode is a 6502 addressing mode.
type AddrMode uint8

const (
	imp AddrMode = iota // implied
	acc                 // accumulator
	imm                 // immediate
	zpg                 // zero page
	zpx                 // zero page,X
	zpy                 // zero page,Y
	abs                 // absolute
	abx                 // absolute,X
	aby                 // absolute,Y
	ind                 // (indirect), JMP only
	izx                 // (indirect,X)
	izy                 // (indirect),Y
	rel                 // relative
)

// size returns the total instruction size, opcode included.
func (m AddrMode) size() int {
	switch m {
	case imp, acc:
		return 1
	case abs, abx, aby, ind:
		return 3
	}
	return 2
}

type opInfo struct {
	Name    string
	Mode    AddrMode
	Cycles  uint8
	Illegal bool

	// adds a cycle when the effective address crosses a page.
	pageCycle bool

	// reads, then writes back its operand in memory.
	rmw bool
}

func op(name string, mode AddrMode, cycles uint8) opInfo {
	return opInfo{
		Name:      name,
		Mode:      mode,
		Cycles:    cycles,
		pageCycle: readOps[name] && (mode == abx || mode == aby || mode == izy),
		rmw:       rmwOps[name] && mode != acc,
	}
}

func ill(name string, mode AddrMode, cycles uint8) opInfo {
	info := op(name, mode, cycles)
	info.Illegal = true
	return info
}

// instructions that only read memory, the only ones with a page crossing
// penalty.
var readOps = map[string]bool{
	"ADC": true, "AND": true, "CMP": true, "EOR": true, "LDA": true, "LDX": true,
	"LDY": true, "ORA": true, "SBC": true, "LAX": true, "LAS": true, "NOP": true,
}

// read-modify-write instructions, when not operating on the accumulator.
var rmwOps = map[string]bool{
	"ASL": true, "LSR": true, "ROL": true, "ROR": true, "INC": true, "DEC": true,
	"SLO": true, "RLA": true, "SRE": true, "RRA": true, "DCP": true, "ISB": true,
}

// unstable opcodes. Their behavior depends on the chip and analog effects,
// we execute them as NOPs.
var unstableOps = map[string]bool{
	"JAM": true, "ANE": true, "LXA": true, "SHA": true, "SHX": true, "SHY": true, "TAS": true,
}

var opcodes = [256]opInfo{
	// 0x00
	op("BRK", imp, 7), op("ORA", izx, 6), ill("JAM", imp, 2), ill("SLO", izx, 8),
	ill("NOP", zpg, 3), op("ORA", zpg, 3), op("ASL", zpg, 5), ill("SLO", zpg, 5),
	op("PHP", imp, 3), op("ORA", imm, 2), op("ASL", acc, 2), ill("ANC", imm, 2),
	ill("NOP", abs, 4), op("ORA", abs, 4), op("ASL", abs, 6), ill("SLO", abs, 6),
	// 0x10
	op("BPL", rel, 2), op("ORA", izy, 5), ill("JAM", imp, 2), ill("SLO", izy, 8),
	ill("NOP", zpx, 4), op("ORA", zpx, 4), op("ASL", zpx, 6), ill("SLO", zpx, 6),
	op("CLC", imp, 2), op("ORA", aby, 4), ill("NOP", imp, 2), ill("SLO", aby, 7),
	ill("NOP", abx, 4), op("ORA", abx, 4), op("ASL", abx, 7), ill("SLO", abx, 7),
	// 0x20
	op("JSR", abs, 6), op("AND", izx, 6), ill("JAM", imp, 2), ill("RLA", izx, 8),
	op("BIT", zpg, 3), op("AND", zpg, 3), op("ROL", zpg, 5), ill("RLA", zpg, 5),
	op("PLP", imp, 4), op("AND", imm, 2), op("ROL", acc, 2), ill("ANC", imm, 2),
	op("BIT", abs, 4), op("AND", abs, 4), op("ROL", abs, 6), ill("RLA", abs, 6),
	// 0x30
	op("BMI", rel, 2), op("AND", izy, 5), ill("JAM", imp, 2), ill("RLA", izy, 8),
	ill("NOP", zpx, 4), op("AND", zpx, 4), op("ROL", zpx, 6), ill("RLA", zpx, 6),
	op("SEC", imp, 2), op("AND", aby, 4), ill("NOP", imp, 2), ill("RLA", aby, 7),
	ill("NOP", abx, 4), op("AND", abx, 4), op("ROL", abx, 7), ill("RLA", abx, 7),
	// 0x40
	op("RTI", imp, 6), op("EOR", izx, 6), ill("JAM", imp, 2), ill("SRE", izx, 8),
	ill("NOP", zpg, 3), op("EOR", zpg, 3), op("LSR", zpg, 5), ill("SRE", zpg, 5),
	op("PHA", imp, 3), op("EOR", imm, 2), op("LSR", acc, 2), ill("ALR", imm, 2),
	op("JMP", abs, 3), op("EOR", abs, 4), op("LSR", abs, 6), ill("SRE", abs, 6),
	// 0x50
	op("BVC", rel, 2), op("EOR", izy, 5), ill("JAM", imp, 2), ill("SRE", izy, 8),
	ill("NOP", zpx, 4), op("EOR", zpx, 4), op("LSR", zpx, 6), ill("SRE", zpx, 6),
	op("CLI", imp, 2), op("EOR", aby, 4), ill("NOP", imp, 2), ill("SRE", aby, 7),
	ill("NOP", abx, 4), op("EOR", abx, 4), op("LSR", abx, 7), ill("SRE", abx, 7),
	// 0x60
	op("RTS", imp, 6), op("ADC", izx, 6), ill("JAM", imp, 2), ill("RRA", izx, 8),
	ill("NOP", zpg, 3), op("ADC", zpg, 3), op("ROR", zpg, 5), ill("RRA", zpg, 5),
	op("PLA", imp, 4), op("ADC", imm, 2), op("ROR", acc, 2), ill("ARR", imm, 2),
	op("JMP", ind, 5), op("ADC", abs, 4), op("ROR", abs, 6), ill("RRA", abs, 6),
	// 0x70
	op("BVS", rel, 2), op("ADC", izy, 5), ill("JAM", imp, 2), ill("RRA", izy, 8),
	ill("NOP", zpx, 4), op("ADC", zpx, 4), op("ROR", zpx, 6), ill("RRA", zpx, 6),
	op("SEI", imp, 2), op("ADC", aby, 4), ill("NOP", imp, 2), ill("RRA", aby, 7),
	ill("NOP", abx, 4), op("ADC", abx, 4), op("ROR", abx, 7), ill("RRA", abx, 7),
	// 0x80
	ill("NOP", imm, 2), op("STA", izx, 6), ill("NOP", imm, 2), ill("SAX", izx, 6),
	op("STY", zpg, 3), op("STA", zpg, 3), op("STX", zpg, 3), ill("SAX", zpg, 3),
	op("DEY", imp, 2), ill("NOP", imm, 2), op("TXA", imp, 2), ill("ANE", imm, 2),
	op("STY", abs, 4), op("STA", abs, 4), op("STX", abs, 4), ill("SAX", abs, 4),
	// 0x90
	op("BCC", rel, 2), op("STA", izy, 6), ill("JAM", imp, 2), ill("SHA", izy, 6),
	op("STY", zpx, 4), op("STA", zpx, 4), op("STX", zpy, 4), ill("SAX", zpy, 4),
	op("TYA", imp, 2), op("STA", aby, 5), op("TXS", imp, 2), ill("TAS", aby, 5),
	ill("SHY", abx, 5), op("STA", abx, 5), ill("SHX", aby, 5), ill("SHA", aby, 5),
	// 0xA0
	op("LDY", imm, 2), op("LDA", izx, 6), op("LDX", imm, 2), ill("LAX", izx, 6),
	op("LDY", zpg, 3), op("LDA", zpg, 3), op("LDX", zpg, 3), ill("LAX", zpg, 3),
	op("TAY", imp, 2), op("LDA", imm, 2), op("TAX", imp, 2), ill("LXA", imm, 2),
	op("LDY", abs, 4), op("LDA", abs, 4), op("LDX", abs, 4), ill("LAX", abs, 4),
	// 0xB0
	op("BCS", rel, 2), op("LDA", izy, 5), ill("JAM", imp, 2), ill("LAX", izy, 5),
	op("LDY", zpx, 4), op("LDA", zpx, 4), op("LDX", zpy, 4), ill("LAX", zpy, 4),
	op("CLV", imp, 2), op("LDA", aby, 4), op("TSX", imp, 2), ill("LAS", aby, 4),
	op("LDY", abx, 4), op("LDA", abx, 4), op("LDX", aby, 4), ill("LAX", aby, 4),
	// 0xC0
	op("CPY", imm, 2), op("CMP", izx, 6), ill("NOP", imm, 2), ill("DCP", izx, 8),
	op("CPY", zpg, 3), op("CMP", zpg, 3), op("DEC", zpg, 5), ill("DCP", zpg, 5),
	op("INY", imp, 2), op("CMP", imm, 2), op("DEX", imp, 2), ill("SBX", imm, 2),
	op("CPY", abs, 4), op("CMP", abs, 4), op("DEC", abs, 6), ill("DCP", abs, 6),
	// 0xD0
	op("BNE", rel, 2), op("CMP", izy, 5), ill("JAM", imp, 2), ill("DCP", izy, 8),
	ill("NOP", zpx, 4), op("CMP", zpx, 4), op("DEC", zpx, 6), ill("DCP", zpx, 6),
	op("CLD", imp, 2), op("CMP", aby, 4), ill("NOP", imp, 2), ill("DCP", aby, 7),
	ill("NOP", abx, 4), op("CMP", abx, 4), op("DEC", abx, 7), ill("DCP", abx, 7),
	// 0xE0
	op("CPX", imm, 2), op("SBC", izx, 6), ill("NOP", imm, 2), ill("ISB", izx, 8),
	op("CPX", zpg, 3), op("SBC", zpg, 3), op("INC", zpg, 5), ill("ISB", zpg, 5),
	op("INX", imp, 2), op("SBC", imm, 2), op("NOP", imp, 2), ill("SBC", imm, 2),
	op("CPX", abs, 4), op("SBC", abs, 4), op("INC", abs, 6), ill("ISB", abs, 6),
	// 0xF0
	op("BEQ", rel, 2), op("SBC", izy, 5), ill("JAM", imp, 2), ill("ISB", izy, 8),
	ill("NOP", zpx, 4), op("SBC", zpx, 4), op("INC", zpx, 6), ill("ISB", zpx, 6),
	op("SED", imp, 2), op("SBC", aby, 4), ill("NOP", imp, 2), ill("ISB", aby, 7),
	ill("NOP", abx, 4), op("SBC", abx, 4), op("INC", abx, 7), ill("ISB", abx, 7),
}

// ops holds the implementation of each opcode.
var ops [256]func(*CPU, operand)

var opsByName = map[string]func(*CPU, operand){
	"ADC": (*CPU).ADC, "AND": (*CPU).AND, "ASL": (*CPU).ASL, "BCC": (*CPU).BCC,
	"BCS": (*CPU).BCS, "BEQ": (*CPU).BEQ, "BIT": (*CPU).BIT, "BMI": (*CPU).BMI,
	"BNE": (*CPU).BNE, "BPL": (*CPU).BPL, "BRK": (*CPU).BRK, "BVC": (*CPU).BVC,
	"BVS": (*CPU).BVS, "CLC": (*CPU).CLC, "CLD": (*CPU).CLD, "CLI": (*CPU).CLI,
	"CLV": (*CPU).CLV, "CMP": (*CPU).CMP, "CPX": (*CPU).CPX, "CPY": (*CPU).CPY,
	"DEC": (*CPU).DEC, "DEX": (*CPU).DEX, "DEY": (*CPU).DEY, "EOR": (*CPU).EOR,
	"INC": (*CPU).INC, "INX": (*CPU).INX, "INY": (*CPU).INY, "JMP": (*CPU).JMP,
	"JSR": (*CPU).JSR, "LDA": (*CPU).LDA, "LDX": (*CPU).LDX, "LDY": (*CPU).LDY,
	"LSR": (*CPU).LSR, "NOP": (*CPU).NOP, "ORA": (*CPU).ORA, "PHA": (*CPU).PHA,
	"PHP": (*CPU).PHP, "PLA": (*CPU).PLA, "PLP": (*CPU).PLP, "ROL": (*CPU).ROL,
	"ROR": (*CPU).ROR, "RTI": (*CPU).RTI, "RTS": (*CPU).RTS, "SBC": (*CPU).SBC,
	"SEC": (*CPU).SEC, "SED": (*CPU).SED, "SEI": (*CPU).SEI, "STA": (*CPU).STA,
	"STX": (*CPU).STX, "STY": (*CPU).STY, "TAX": (*CPU).TAX, "TAY": (*CPU).TAY,
	"TSX": (*CPU).TSX, "TXA": (*CPU).TXA, "TXS": (*CPU).TXS, "TYA": (*CPU).TYA,

	// stable undocumented opcodes.
	"ALR": (*CPU).ALR, "ANC": (*CPU).ANC, "ARR": (*CPU).ARR, "DCP": (*CPU).DCP,
	"ISB": (*CPU).ISB, "LAS": (*CPU).LAS, "LAX": (*CPU).LAX, "RLA": (*CPU).RLA,
	"RRA": (*CPU).RRA, "SAX": (*CPU).SAX, "SBX": (*CPU).SBX, "SLO": (*CPU).SLO,
	"SRE": (*CPU).SRE,
}

func init() {
	for i, info := range opcodes {
		if unstableOps[info.Name] {
			ops[i] = (*CPU).unstable
			continue
		}
		ops[i] = opsByName[info.Name]
	}
}

// operand is the result of the addressing mode resolution.
type operand struct {
	addr    uint16
	mode    AddrMode
	crossed bool // page crossed while indexing
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// operand resolves the effective address of the instruction at PC.
func (c *CPU) operand(mode AddrMode) operand {
	oper := operand{mode: mode}
	pc := c.PC

	switch mode {
	case imp, acc:
	case imm:
		oper.addr = pc + 1
	case zpg:
		oper.addr = uint16(c.Mem.Read8(pc + 1))
	case zpx:
		oper.addr = uint16(c.Mem.Read8(pc+1) + c.X)
	case zpy:
		oper.addr = uint16(c.Mem.Read8(pc+1) + c.Y)
	case abs:
		oper.addr = c.read16(pc + 1)
	case abx:
		base := c.read16(pc + 1)
		oper.addr = base + uint16(c.X)
		oper.crossed = pagesDiffer(base, oper.addr)
	case aby:
		base := c.read16(pc + 1)
		oper.addr = base + uint16(c.Y)
		oper.crossed = pagesDiffer(base, oper.addr)
	case ind:
		oper.addr = c.read16bug(c.read16(pc + 1))
	case izx:
		oper.addr = c.read16zp(c.Mem.Read8(pc+1) + c.X)
	case izy:
		base := c.read16zp(c.Mem.Read8(pc + 1))
		oper.addr = base + uint16(c.Y)
		oper.crossed = pagesDiffer(base, oper.addr)
	case rel:
		off := int8(c.Mem.Read8(pc + 1))
		oper.addr = pc + 2 + uint16(off)
	}
	return oper
}
