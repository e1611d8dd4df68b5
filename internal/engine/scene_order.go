package engine

// SceneOrder is the linear path through the experience. The gate bypass
// jumps straight to the last entry.
var SceneOrder = []Scene{
	SceneGate,
	SceneHook,
	SceneQuestion,
	SceneProposal,
	SceneRecap,
}

// Successor returns the scene that normally follows s, and false for the
// final scene.
func Successor(s Scene) (Scene, bool) {
	for i, scene := range SceneOrder {
		if scene == s && i+1 < len(SceneOrder) {
			return SceneOrder[i+1], true
		}
	}
	return "", false
}
