package topic

// Default returns the built-in candidate intake agenda.
func Default() *Catalog {
	return MustNew(defaultTopics())
}

func defaultTopics() []Topic {
	return []Topic{
		{
			ID:          Name,
			Label:       "name",
			Description: "Full name of the candidate",
			Expected:    "First and last name",
			FollowUps: []string{
				"Could you please tell me your full name?",
				"Could you spell your full name for me?",
				"Do you go by any other names professionally?",
			},
		},
		{
			ID:          CurrentRole,
			Label:       "current role",
			Description: "Current job position and main responsibilities",
			Expected:    "Job title, company, key responsibilities, team size, main achievements",
			FollowUps: []string{
				"What are your main responsibilities in this role?",
				"How large is the team you work with?",
				"What have been your key achievements in this position?",
			},
		},
		{
			ID:          YearsOfExperience,
			Label:       "years of experience",
			Description: "Total relevant work experience",
			Expected:    "Years of total experience, years in current field, career progression",
			FollowUps: []string{
				"How long have you been working in this field specifically?",
				"Could you briefly outline your career progression?",
				"What different roles have you held during your career?",
			},
		},
		{
			ID:          TechnicalSkills,
			Label:       "technical skills",
			Description: "Technical abilities and proficiency levels",
			Expected:    "List of skills with proficiency levels (beginner/intermediate/expert), recent usage",
			FollowUps: []string{
				"Could you rate your proficiency in each skill mentioned?",
				"How recently have you used these skills?",
				"What projects have you completed using these skills?",
			},
		},
		{
			ID:          ProjectExperience,
			Label:       "project experience",
			Description: "Significant projects and achievements",
			Expected:    "Project descriptions, role, technologies used, outcomes, challenges overcome",
			FollowUps: []string{
				"What was your specific role in these projects?",
				"What challenges did you face and how did you overcome them?",
				"What were the measurable outcomes of these projects?",
			},
		},
		{
			ID:          Motivation,
			Label:       "motivation",
			Description: "Career goals and motivation for the position",
			Expected:    "Short-term and long-term goals, interest in the position, alignment with career path",
			FollowUps: []string{
				"What interests you most about this position?",
				"Where do you see yourself in 5 years?",
				"How does this role align with your career goals?",
			},
		},
		{
			ID:          PreferredWorkEnvironment,
			Label:       "preferred work environment",
			Description: "Work style and preferred environment",
			Expected:    "Preferred work style, team dynamics, company culture, work-life balance",
			FollowUps: []string{
				"What type of company culture do you thrive in?",
				"How do you prefer to collaborate with team members?",
				"What management style works best for you?",
			},
		},
	}
}
