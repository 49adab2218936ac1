package game

import "encoding/json"

// Client packet types.
const (
	packetSubmitCard = "submit_card"
	packetChooseRow  = "choose_row"
)

// Server packet types beyond the engine event kinds.
const (
	packetError          = "error"
	packetRoomCreated    = "room_created"
	packetPlayerJoined   = "player_joined"
	packetPlayerLeft     = "player_left"
	packetRoomTerminated = "room_terminated"
)

// ClientPacket is the single inbound envelope. Type selects which of the
// remaining fields matter.
type ClientPacket struct {
	Type string `json:"type"`
	Card int    `json:"card,omitempty"`
	Row  int    `json:"row,omitempty"`
}

type ServerPacket struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// encodePacket marshals a server packet. Payload types are all plain structs
// and slices, so marshaling cannot fail at runtime.
func encodePacket(packetType string, payload any) []byte {
	data, _ := json.Marshal(ServerPacket{Type: packetType, Payload: payload})
	return data
}

func MakeEventPacket(ev Event) []byte {
	return encodePacket(string(ev.Kind), ev.Payload)
}

type errorPayload struct {
	Error string `json:"error"`
}

func MakeErrorPacket(err error) []byte {
	return encodePacket(packetError, errorPayload{Error: err.Error()})
}

type roomCreatedPayload struct {
	RoomID  string `json:"roomId"`
	Variant string `json:"variant"`
}

func MakeRoomCreatedPacket(roomId string, variant Variant) []byte {
	return encodePacket(packetRoomCreated, roomCreatedPayload{RoomID: roomId, Variant: string(variant)})
}

type playerPresencePayload struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	PlayersCount int    `json:"playersCount"`
}

func MakePlayerJoinedPacket(userId, username string, playersCount int) []byte {
	return encodePacket(packetPlayerJoined, playerPresencePayload{UserID: userId, Username: username, PlayersCount: playersCount})
}

func MakePlayerLeftPacket(userId, username string, playersCount int) []byte {
	return encodePacket(packetPlayerLeft, playerPresencePayload{UserID: userId, Username: username, PlayersCount: playersCount})
}

type roomTerminatedPayload struct {
	Reason string `json:"reason"`
}

func MakeRoomTerminatedPacket(reason string) []byte {
	return encodePacket(packetRoomTerminated, roomTerminatedPayload{Reason: reason})
}
