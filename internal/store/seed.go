package store

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }

// ReferenceQuestionnaire returns the five-section, 70-point collaboration
// questionnaire. IDs are stable so reseeding keeps stored responses attached.
func ReferenceQuestionnaire() []Section {
	scale := func(id, sectionID, text, description string, weight float64, order int, category string) Question {
		return Question{
			ID: id, SectionID: sectionID, Type: "NUMERIC_SCALE", Text: text, Description: description,
			Weight: weight, Required: true, SortOrder: order, MinValue: f64(1), MaxValue: f64(10), Category: category,
		}
	}
	check := func(id, sectionID, text string, weight float64, required bool, order int, category string) Question {
		return Question{
			ID: id, SectionID: sectionID, Type: "CHECKBOX", Text: text,
			Weight: weight, Required: required, SortOrder: order, Category: category,
		}
	}
	child := func(id, sectionID, kind, text, description string, order int, parent, when string) Question {
		return Question{
			ID: id, SectionID: sectionID, Type: kind, Text: text, Description: description,
			SortOrder: order, ShowIfQuestionID: parent, ShowIfValue: str(when),
		}
	}

	return []Section{
		{
			ID: "sec-experience", Title: "Experience & Track Record", SortOrder: 1, MaxScore: 15,
			Description: "Assess the partner's relevant experience and past performance",
			Questions: []Question{
				scale("q-experience-years", "sec-experience", "How many years of experience do you have in this industry?", "1 = Less than 1 year, 10 = 10+ years", 5, 1, "experience"),
				scale("q-track-record", "sec-experience", "How would you rate your track record of successful collaborations?", "1 = No prior collaborations, 10 = Extensive successful partnerships", 5, 2, "experience"),
				check("q-references", "sec-experience", "Do you have verifiable references from past partners?", 5, false, 3, ""),
				child("q-reference-name", "sec-experience", "TEXT", "Reference Contact Name", "Full name of your reference contact", 4, "q-references", "true"),
				child("q-reference-email", "sec-experience", "TEXT", "Reference Email Address", "Email address for your reference", 5, "q-references", "true"),
				child("q-reference-website", "sec-experience", "TEXT", "Reference Website", "Company or personal website URL", 6, "q-references", "true"),
				child("q-reference-social", "sec-experience", "TEXT", "Reference Social Media Handles", "LinkedIn, Facebook, Instagram, X (Twitter) - include all that apply", 7, "q-references", "true"),
			},
		},
		{
			ID: "sec-financial", Title: "Financial Readiness", SortOrder: 2, MaxScore: 20,
			Description: "Evaluate financial stability and resource availability",
			Questions: []Question{
				scale("q-financial-stability", "sec-financial", "How would you rate your current financial stability?", "1 = Significant challenges, 10 = Very stable", 8, 1, "financial"),
				scale("q-budget", "sec-financial", "Do you have budget allocated for this collaboration?", "1 = No budget, 10 = Fully funded", 7, 2, "financial"),
				check("q-upfront-investment", "sec-financial", "Are you prepared to invest resources upfront if required?", 5, false, 3, ""),
				child("q-investment-detail", "sec-financial", "TEXT", "What resources are you prepared to invest?", "e.g., small budget, contact list, barter with limited amounts", 4, "q-upfront-investment", "true"),
			},
		},
		{
			ID: "sec-alignment", Title: "Alignment & Values", SortOrder: 3, MaxScore: 15,
			Description: "Assess cultural and strategic alignment",
			Questions: []Question{
				scale("q-goal-alignment", "sec-alignment", "How aligned are your business goals with this partnership?", "1 = Not aligned, 10 = Perfectly aligned", 5, 1, ""),
				scale("q-cultural-fit", "sec-alignment", "How would you rate the cultural fit between our organizations?", "1 = Poor fit, 10 = Excellent fit", 5, 2, ""),
				check("q-ethics", "sec-alignment", "Do you share our commitment to ethical business practices?", 5, true, 3, ""),
			},
		},
		{
			ID: "sec-operations", Title: "Operational Capacity", SortOrder: 4, MaxScore: 10,
			Description: "Evaluate ability to execute and deliver",
			Questions: []Question{
				scale("q-team-capacity", "sec-operations", "How would you rate your team's capacity to take on this project?", "1 = Very limited, 10 = Fully available", 5, 1, ""),
				check("q-dedicated-resources", "sec-operations", "Do you have dedicated resources for this collaboration?", 5, false, 2, ""),
				child("q-team-members", "sec-operations", "CHECKBOX", "Team Members", "Will you have team members dedicated to this collaboration?", 3, "q-dedicated-resources", "true"),
				child("q-team-size", "sec-operations", "TEXT", "Number of team members", "How many team members will be dedicated?", 4, "q-team-members", "true"),
				child("q-team-hours", "sec-operations", "TEXT", "Hours per week", "How many hours per week can they dedicate?", 5, "q-team-members", "true"),
				child("q-other-resources", "sec-operations", "CHECKBOX", "Other Resources", "Do you have other resources to dedicate?", 6, "q-dedicated-resources", "true"),
				child("q-other-resources-detail", "sec-operations", "TEXT", "Please describe your other resources", "What other resources can you dedicate to this collaboration?", 7, "q-other-resources", "true"),
			},
		},
		{
			ID: "sec-compliance", Title: "Compliance & Legal", SortOrder: 5, MaxScore: 10,
			Description: "Verify legal and compliance requirements",
			Questions: []Question{
				check("q-law-compliance", "sec-compliance", "Do you agree to comply with all applicable laws and regulations?", 5, true, 1, "compliance"),
				check("q-standard-terms", "sec-compliance", "Do you agree to our standard terms and conditions?", 5, true, 2, "compliance"),
				child("q-compliance-concerns", "sec-compliance", "TEXT", "Please describe any compliance concerns or limitations.", "This question appears if you indicated compliance concerns", 3, "q-law-compliance", "false"),
			},
		},
	}
}
