package command

const banner = `
 _                      __       _ _
| |_ ___ _ __ _ __ ___ / _| ___ | (_) ___
| __/ _ \ '__| '_ ` + "`" + ` _ \| |_ / _ \| | |/ _ \
| ||  __/ |  | | | | | |  _| (_) | | | (_) |
 \__\___|_|  |_| |_| |_|_|  \___/|_|_|\___/
`

var helpLines = []string{
	"Available commands:",
	"",
	"  ls [-l] [path]     list directory contents",
	"  cd [path]          change directory (~ is home, / lists mounts)",
	"  pwd                print working directory",
	"  cat <file>         open a file",
	"  whoami             about this site",
	"  id                 show identity and connection details",
	"  echo <text>        print text",
	"  export [K=V]       set or list environment variables",
	"  unset <name>       remove an environment variable",
	"  login / logout     connect or disconnect a wallet",
	"  explorer [path]    switch to the file explorer view",
	"  clear              clear the screen",
	"  help               show this message",
	"",
	"Pipes: cmd | grep <pattern> | head [-n] | tail [-n] | wc",
	"Variables: $NAME or ${NAME}.  History: !!, !N, !-N",
	"Tab completes commands and paths, ArrowRight accepts a hint.",
}
