package ethdescriptor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Disassemble renders hex encoded EVM bytecode in the solc "opcodes" format,
// e.g. "PUSH1 0x80 PUSH1 0x40 MSTORE". A push cut short by the end of the
// code prints whatever immediate bytes remain.
func Disassemble(bytecodeHex string) (string, error) {
	if !strings.HasPrefix(bytecodeHex, "0x") && !strings.HasPrefix(bytecodeHex, "0X") {
		bytecodeHex = "0x" + bytecodeHex
	}
	if bytecodeHex == "0x" {
		return "", nil
	}

	code, err := hexutil.Decode(bytecodeHex)
	if err != nil {
		return "", fmt.Errorf("invalid bytecode hex: %w", err)
	}

	var out []string
	for pc := 0; pc < len(code); pc++ {
		op := vm.OpCode(code[pc])
		out = append(out, opcodeName(op))

		if op.IsPush() && op != vm.PUSH0 {
			n := int(op-vm.PUSH1) + 1
			end := min(pc+1+n, len(code))
			if pc+1 < end {
				out = append(out, "0x"+strings.ToUpper(hex.EncodeToString(code[pc+1:end])))
			}
			pc = end - 1
		}
	}

	return strings.Join(out, " "), nil
}

func opcodeName(op vm.OpCode) string {
	name := op.String()
	if strings.HasPrefix(name, "opcode ") {
		return "INVALID"
	}
	return name
}
