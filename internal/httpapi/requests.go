package httpapi

type createSessionRequest struct {
	Team1Name       string `json:"team1Name" validate:"omitempty,max=100"`
	Team2Name       string `json:"team2Name" validate:"omitempty,max=100"`
	DraftMode       string `json:"draftMode" validate:"omitempty,oneof=normal fearless ironman"`
	PlannedGames    int    `json:"plannedGames" validate:"omitempty,min=1,max=7"`
	PickTimeSeconds int    `json:"pickTimeSeconds" validate:"omitempty,min=5,max=600"`
	BanTimeSeconds  int    `json:"banTimeSeconds" validate:"omitempty,min=5,max=600"`
}

type joinCaptainRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=50"`
}

type switchTeamRequest struct {
	To string `json:"to" validate:"required,oneof=team1 team2"`
}

type selectSideRequest struct {
	Side string `json:"side" validate:"required,oneof=blue red"`
}

type setReadyRequest struct {
	Ready *bool `json:"ready" validate:"required"`
}

type submitActionRequest struct {
	Side     string `json:"side" validate:"required,oneof=blue red"`
	Action   string `json:"action" validate:"required,oneof=ban pick"`
	Champion string `json:"champion" validate:"required,max=64"`
	// ExpectedIndex pins the submission to the turn the client saw. Stale
	// submissions are rejected instead of landing on the wrong turn.
	ExpectedIndex *int `json:"expectedIndex" validate:"omitempty,min=0,max=19"`
}

type timeoutActionRequest struct {
	// Pool is the champion list the client draws the automatic choice from.
	Pool []string `json:"pool" validate:"required,min=1,max=1000,dive,required,max=64"`
}

type editPickRequest struct {
	Side     string `json:"side" validate:"required,oneof=blue red"`
	Slot     int    `json:"slot" validate:"min=0,max=4"`
	Champion string `json:"champion" validate:"required,max=64"`
}

type setWinnerRequest struct {
	Winner string `json:"winner" validate:"required,oneof=blue red"`
}

type joinSpectatorRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=50"`
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}
