package app

import (
	"fmt"
	"io"
)

// Command はtoodelooバイナリのサブコマンド。
type Command string

const (
	CommandServe       Command = "serve"
	CommandMigrate     Command = "migrate"
	CommandHealthcheck Command = "healthcheck"
	CommandCreateUser  Command = "create-user"
	CommandHelp        Command = "help"
)

// commandSpec はサブコマンドの引数書式と説明。
type commandSpec struct {
	cmd   Command
	args  string
	usage string
}

// commands はヘルプに表示する順で並べたサブコマンド一覧。
var commands = []commandSpec{
	{CommandServe, "", "書籍カタログのWebサーバーを起動する（既定）"},
	{CommandMigrate, "", "documentsテーブルのマイグレーションを適用する"},
	{CommandCreateUser, "<email> <password>", "ログイン可能なユーザーを登録する"},
	{CommandHealthcheck, "", "起動中サーバーの/healthを確認する（Docker HEALTHCHECK用）"},
	{CommandHelp, "", "このヘルプを表示する"},
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数なし、または未知の名前はserveとして扱う。-h/--helpはhelpとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if args[0] == "-h" || args[0] == "--help" {
		return CommandHelp
	}
	for _, c := range commands {
		if string(c.cmd) == args[0] {
			return c.cmd
		}
	}
	return CommandServe
}

// writeUsage はサブコマンド一覧をwに書き出す。
func writeUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: toodeloo <command> [args]")
	fmt.Fprintln(w)
	for _, c := range commands {
		name := string(c.cmd)
		if c.args != "" {
			name += " " + c.args
		}
		fmt.Fprintf(w, "  %-32s %s\n", name, c.usage)
	}
}
