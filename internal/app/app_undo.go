package app

// ============================================================
// Undo / Redo
// ============================================================

func (a *App) Undo() {
	a.store.Undo()
}

func (a *App) Redo() {
	a.store.Redo()
}

func (a *App) CanUndo() bool {
	return a.store.CanUndo()
}

func (a *App) CanRedo() bool {
	return a.store.CanRedo()
}
