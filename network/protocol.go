package network

const (
	MsgTypeHeartbeat  = 1
	MsgTypeJoinServer = 2

	// 房间事件
	MsgTypeCreateRoom     = 101
	MsgTypeJoinRoom       = 102
	MsgTypeSpectateRoom   = 103
	MsgTypeLeaveRoom      = 104
	MsgTypeStopSpectating = 105
	MsgTypeRoomList       = 106

	// 对局事件
	MsgTypeSetRuleSet         = 201
	MsgTypeStartGame          = 202
	MsgTypeAddStartingVote    = 203
	MsgTypeRemoveStartingVote = 204
	MsgTypeSetCardToPlay      = 205
	MsgTypePlayCard           = 206
	MsgTypeSortHand           = 207
	MsgTypeMulligan           = 208
	MsgTypeEndTurn            = 209

	// 服务端推送
	MsgTypeRoomState    = 301
	MsgTypeActionResult = 302
	MsgTypeRoomClosed   = 303
)
