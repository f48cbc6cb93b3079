package server

// PlayerID 表示玩家身份，固定为 A、B、C、D 四个字母之一
type PlayerID string

// allPlayerIDs 固定席位顺序，入场认领与快照输出都按此顺序
var allPlayerIDs = [4]PlayerID{"A", "B", "C", "D"}

// MaxPlayers 同一战场的最大玩家数
const MaxPlayers = len(allPlayerIDs)

// slotIndex 返回身份对应的席位序号（A=0 .. D=3），未知身份返回 -1
func slotIndex(id PlayerID) int {
	for i, pid := range allPlayerIDs {
		if pid == id {
			return i
		}
	}
	return -1
}

// Direction 移动方向（服务端权威解释客户端意图）
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "UP"
	case DirDown:
		return "DOWN"
	case DirLeft:
		return "LEFT"
	case DirRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// Player 战场内的玩家实体（服务端权威状态）
type Player struct {
	ID     PlayerID
	Pos    Coord
	Health int

	Conn Conn // 网络连接的发送端，仅用于投递，不拥有其生命周期
}

// PlayerState 为广播给客户端的轻量状态
type PlayerState struct {
	ID     string `json:"id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Health int    `json:"health"`
}
