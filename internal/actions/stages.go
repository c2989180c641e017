package actions

// StageView is a stage and its bound actions, grouped for display.
type StageView struct {
	ID     string
	Title  string
	Groups []GroupView
}

// GroupView is one group of a StageView.
type GroupView struct {
	ID      string
	Title   string
	Actions []*BoundAction
}

// Stages returns the stage, group, action hierarchy in registration order.
// Titles come from the loaded catalog; stages and groups it does not name
// use their ids.
func (r *Registry) Stages() []StageView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stageTitles := make(map[string]string)
	groupTitles := make(map[string]string)
	if r.catalog != nil {
		for _, st := range r.catalog.Stages {
			stageTitles[st.ID] = st.Title
			for _, g := range st.Groups {
				groupTitles[st.ID+"/"+g.ID] = g.Title
			}
		}
	}

	var out []StageView
	stageIdx := make(map[string]int)
	groupIdx := make(map[string]int)
	for _, id := range r.order {
		b := r.actions[id]
		a := b.action
		si, ok := stageIdx[a.Stage]
		if !ok {
			si = len(out)
			stageIdx[a.Stage] = si
			out = append(out, StageView{ID: a.Stage, Title: titleOr(stageTitles[a.Stage], a.Stage)})
		}
		key := a.Stage + "/" + a.Group
		gi, ok := groupIdx[key]
		if !ok {
			gi = len(out[si].Groups)
			groupIdx[key] = gi
			out[si].Groups = append(out[si].Groups, GroupView{ID: a.Group, Title: titleOr(groupTitles[key], a.Group)})
		}
		out[si].Groups[gi].Actions = append(out[si].Groups[gi].Actions, b)
	}
	return out
}

func titleOr(title, id string) string {
	if title != "" {
		return title
	}
	return id
}
