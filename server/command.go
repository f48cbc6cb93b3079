package server

import "strings"

// CommandKind 命令种类
type CommandKind int

const (
	CmdMove CommandKind = iota
	CmdJump
	CmdAttack
	CmdSay
	CmdQuit
)

func (k CommandKind) String() string {
	switch k {
	case CmdMove:
		return "MOVE"
	case CmdJump:
		return "JUMP"
	case CmdAttack:
		return "ATTACK"
	case CmdSay:
		return "SAY"
	case CmdQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// Command 解析后的客户端命令（意图），由协调循环串行解释
// 行协议示例：
//
//	MOVE UP
//	JUMP RIGHT
//	ATTACK
//	SAY hello everyone
//	QUIT
type Command struct {
	Kind CommandKind
	Dir  Direction // 仅 MOVE/JUMP 有效
	Text string    // 仅 SAY 有效，为首个空格后的原始剩余内容
}

// envelope 入站命令与其来源连接，经命令通道进入协调循环。
// 以连接而非身份字母标记来源：字母会被释放复用，残留命令不得冒充后来者。
type envelope struct {
	conn Conn
	cmd  Command
}

// parseDirection 解析方向关键字（大小写敏感，与命令动词一致）
func parseDirection(s string) (Direction, bool) {
	switch s {
	case "UP":
		return DirUp, true
	case "DOWN":
		return DirDown, true
	case "LEFT":
		return DirLeft, true
	case "RIGHT":
		return DirRight, true
	default:
		return DirNone, false
	}
}

// ParseCommand 解析一行命令文本，两种网络入口共用此唯一边界
// 未知动词、参数数量不符、非法方向均判为非法命令
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	verb, rest, hasRest := strings.Cut(line, " ")
	switch verb {
	case "MOVE", "JUMP":
		dir, ok := parseDirection(rest)
		if !hasRest || !ok {
			return Command{}, ErrMalformedCommand
		}
		kind := CmdMove
		if verb == "JUMP" {
			kind = CmdJump
		}
		return Command{Kind: kind, Dir: dir}, nil
	case "ATTACK":
		if hasRest {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdAttack}, nil
	case "SAY":
		if !hasRest || rest == "" {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdSay, Text: rest}, nil
	case "QUIT":
		if hasRest {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdQuit}, nil
	default:
		return Command{}, ErrMalformedCommand
	}
}
