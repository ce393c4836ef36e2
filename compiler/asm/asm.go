package asm

import "strconv"

type (
	// Label names the block of the instruction at IP.
	Label int

	// StrLabel names the k-th string literal.
	StrLabel int

	Reg  string
	Cond string
)

// Registers used by instruction templates.
const (
	RAX Reg = "rax"
	RDX Reg = "rdx"
	RDI Reg = "rdi"
)

// Jump conditions. Unsigned.
const (
	NE Cond = "ne"
	BE Cond = "be" // not above
	AE Cond = "ae" // not below
)

const (
	Format = "format ELF64 executable 3"

	SegmentCode = "segment readable executable"
	SegmentData = "segment readable writable"

	Entry = "_start"

	PrintFunc = "print"

	SysWrite = 1
	SysExit  = 60
)

// PrintRoutine prints rdi as unsigned decimal followed by '\n' to fd 1.
// Clobbers rax, rcx, rdx, rsi, rdi, r8, r9.
const PrintRoutine = `print:
    mov     r9, -3689348814741910323
    sub     rsp, 40
    mov     BYTE [rsp+31], 10
    lea     rcx, [rsp+30]
.L2:
    mov     rax, rdi
    lea     r8, [rsp+32]
    mul     r9
    mov     rax, rdi
    sub     r8, rcx
    shr     rdx, 3
    lea     rsi, [rdx+rdx*4]
    add     rsi, rsi
    sub     rax, rsi
    add     eax, 48
    mov     BYTE [rcx], al
    mov     rax, rdi
    mov     rdi, rdx
    mov     rdx, rcx
    sub     rcx, 1
    cmp     rax, 9
    ja      .L2
    lea     rax, [rsp+32]
    mov     edi, 1
    sub     rdx, rax
    lea     rsi, [rsp+32+rdx]
    mov     rdx, r8
    mov     rax, 1
    syscall
    add     rsp, 40
    ret
`

func (l Label) String() string { return "inst_" + strconv.Itoa(int(l)) }

func (l StrLabel) String() string { return "str_" + strconv.Itoa(int(l)) }

// Jump returns the conditional jump mnemonic, e.g. "jne".
func (c Cond) Jump() string { return "j" + string(c) }

// FitsImm32 reports whether v can be an immediate of push.
func FitsImm32(v uint64) bool {
	return v <= 0x7fffffff
}
