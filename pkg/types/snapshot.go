package types

// StateSnapshot:
//   version: number
//   view:
//     code: string
//     scene: "gate" | "hook" | "question" | "proposal" | "recap"
//     gate | intro | proposal: scene copy, present for that scene only
//     question: { id, index, total, text, options[], phase, selected?, correct?,
//                 feedback?, copy, memories[], bubbles[]?, next_ready, next_label }
//       phase: "asking" | "feedback" | "memories"
//       bubbles: { start_x, start_y, drift_x, drift_y, duration } // seconds
//     recap: { title, subtitle, rows: card[][], replay? }
//       card: { key, label, title, item: { kind, question_id? } }
//     summary: { correct, answered, entries: { id, selected, correct }[] }
//     status: string
//     background: string // url
//     music: { enabled, playing, blocked }
//     cover: { active, transition?, swap_in_ms?, clear_in_ms? }
//   directives: { kind: "background" | "music" | "cue", action?, name?, url?, volume?, loop? }[]
//   error?: string // only ever sent to the client whose password was rejected
