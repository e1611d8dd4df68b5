package types

// Client -> Server
// SubmitPassword:
//   input: string
//
// GateInput (sent as the user types; only the bypass phrase reacts):
//   input: string
//
// Continue: {}
//
// SelectAnswer:
//   option: string
//
// NextQuestion: {}
//
// AcceptProposal: {}
//
// OpenReplay:
//   replay_kind: "intro" | "question" | "proposal"
//   question_id: number // replay_kind == "question" only
//
// CloseReplay: {}
//
// ToggleMusic | PlayMusic | PauseMusic: {}
//
// AutoplayBlocked: {} // the browser refused to start audio

// Server -> Client
// StateSnapshot: see snapshot.go
//
// Error:
//   error: string // wrong password text, or a protocol error
