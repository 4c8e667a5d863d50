// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

// A summary of every command, in display order, for the help command.
type commandInfo struct {
	path  string
	brief string
}

var commandIndex []commandInfo

func addCommand(t *cmd.Tree, prefix string, d cmd.CommandDescriptor) {
	t.AddCommand(d)
	if d.Brief != "" {
		commandIndex = append(commandIndex, commandInfo{path: prefix + d.Name, brief: d.Brief})
	}
}

func init() {
	// Each command stores the host callback that handles it.
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "asm7x"})
	addCommand(root, "", cmd.CommandDescriptor{
		Name:        "help",
		Brief:       "Display help for a command",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	addCommand(root, "", cmd.CommandDescriptor{
		Name:  "assemble",
		Brief: "Assemble a file and load the binary",
		Description: "Run the assembler on the specified file, producing" +
			" a binary file and source map file if successful. The binary" +
			" is then loaded into memory at its origin. Set the verbose" +
			" variable to trace the assembly, and the listing variable to" +
			" also produce a listing file.",
		Usage: "assemble <filename>",
		Data:  (*Host).cmdAssemble,
	})
	addCommand(root, "", cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		Usage: "disassemble [<address>] [<lines>]",
		Data:  (*Host).cmdDisassemble,
	})
	addCommand(root, "", cmd.CommandDescriptor{
		Name:  "list",
		Brief: "List an assembled source file",
		Description: "Assemble the specified file without saving anything," +
			" and display each source line along with its address and the" +
			" bytes it generated.",
		Usage: "list <filename>",
		Data:  (*Host).cmdList,
	})
	addCommand(root, "", cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a binary file",
		Description: "Load the contents of a binary file into memory. If the" +
			" file has an associated source map, it is loaded too and gives" +
			" the load address. Otherwise you must specify the address where" +
			" the data will be loaded.",
		Usage: "load <filename> [<address>]",
		Data:  (*Host).cmdLoad,
	})

	// Memory commands
	me := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	addCommand(me, "memory ", cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  (*Host).cmdMemoryDump,
	})

	addCommand(root, "", cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	addCommand(root, "", cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})

	// Add command shortcuts.
	root.AddShortcut("a", "assemble")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("l", "list")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("?", "help")

	cmds = root
}
