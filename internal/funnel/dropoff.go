package funnel

import "github.com/sells-group/funnel-cli/internal/model"

// majorDropOff is the share of a previous step's users that must be lost
// for a step to count as a major drop-off point.
const majorDropOff = 0.5

// DropOffs derives per-step losses, major drop-off points and insights
// from an aggregated funnel.
func DropOffs(f model.ConversionFunnel) model.DropOffAnalysis {
	a := model.DropOffAnalysis{
		FunnelSteps:        make([]model.DropOffStep, 0, len(f.Steps)),
		MajorDropOffPoints: []model.DropOffPoint{},
		Insights:           []string{},
		Warnings:           f.Warnings,
	}

	for i, s := range f.Steps {
		step := model.DropOffStep{
			StepName:       s.StepName,
			StepOrder:      s.StepOrder,
			UsersReached:   s.TotalUsers,
			ConversionRate: s.ConversionRate,
			DropOffRate:    s.DropOffRate,
		}
		if i > 0 {
			prev := f.Steps[i-1].TotalUsers
			lost := prev - s.TotalUsers
			lostRate := ratio(lost, prev)
			step.UsersLost = &lost
			step.UsersLostRate = &lostRate
			if lostRate > majorDropOff {
				a.MajorDropOffPoints = append(a.MajorDropOffPoints, model.DropOffPoint{
					StepName:    s.StepName,
					DropOffRate: lostRate,
					UsersLost:   lost,
				})
			}
		}
		a.FunnelSteps = append(a.FunnelSteps, step)
	}

	p := newPrinter()
	if len(a.MajorDropOffPoints) > 0 {
		worst := a.MajorDropOffPoints[0]
		for _, d := range a.MajorDropOffPoints[1:] {
			if d.DropOffRate > worst.DropOffRate {
				worst = d
			}
		}
		a.Insights = append(a.Insights, p.Sprintf(
			"The most severe drop-off is at %s, losing %.1f%% of users", worst.StepName, percent(worst.DropOffRate)))
	} else {
		a.Insights = append(a.Insights, "No severe drop-off point found; the funnel flows smoothly")
	}

	if f.TotalUsersEntered > 0 {
		lost := f.TotalUsersEntered - f.TotalUsersConverted
		a.Insights = append(a.Insights, p.Sprintf(
			"Overall drop-off rate is %.1f%%: %d users left before converting",
			percent(ratio(lost, f.TotalUsersEntered)), lost))
	}
	return a
}
