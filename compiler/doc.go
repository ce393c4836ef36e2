/*

Process of compilation

Program Text ->
	lex (front) ->
Tokens, Branch Map, String Table (ir) ->
	codegen (back) ->
FASM Assembly Text (.asm) ->
	fasm ->
ELF64 Executable

*/
package compiler
