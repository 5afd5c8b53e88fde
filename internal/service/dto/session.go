package dto

type CreateSessionRequest struct {
	HostName string `json:"host_name"`
}

type CreateSessionResponse struct {
	LobbyCode string `json:"lobby_code"`
	HostID    string `json:"host_id"`
	HostName  string `json:"host_name"`
}
