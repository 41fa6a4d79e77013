package scoring

// DetermineDecision maps a total score onto a band. Lower bounds are inclusive.
func (e *Engine) DetermineDecision(totalScore float64) Decision {
	switch {
	case totalScore >= e.cfg.ProceedMin:
		return Proceed
	case totalScore >= e.cfg.SafeguardsMin:
		return ProceedWithSafeguards
	default:
		return Pause
	}
}

// DetermineDecisionBand resolves the recommendation for score. A PROCEED band is
// downgraded to PROCEED_WITH_SAFEGUARDS when any flag is critical or
// non-negotiable; no other band is ever downgraded by flags.
func (e *Engine) DetermineDecisionBand(score Score, riskFlags []string) DecisionBand {
	decision := e.DetermineDecision(score.TotalScore)
	if decision == Proceed && (HasCriticalFlags(riskFlags) || HasNonNegotiableFlags(riskFlags)) {
		decision = ProceedWithSafeguards
	}

	flags := make([]string, len(riskFlags))
	copy(flags, riskFlags)

	return DecisionBand{
		ID:           e.newID(),
		AssessmentID: score.AssessmentID,
		ScoreID:      score.ID,
		Decision:     decision,
		Explanation:  decision.Explanation(),
		RiskFlags:    flags,
		CreatedAt:    e.now(),
	}
}

// Override replaces the total of an existing score and re-resolves its band from
// the thresholds alone. Risk detection is not re-run, so the returned band carries
// no flags and is never downgraded.
func (e *Engine) Override(score Score, newTotal float64) (Score, DecisionBand) {
	updated := score
	updated.SectionScores = append([]SectionScore(nil), score.SectionScores...)
	if updated.MaxScore <= 0 {
		updated.MaxScore = e.cfg.MaxScore
	}
	updated.TotalScore = round2(newTotal)
	updated.Percentage = round2(updated.TotalScore / updated.MaxScore * 100)
	return updated, e.DetermineDecisionBand(updated, nil)
}
