package plan

// Standard returns the production plan table with provider price ids filled
// in from refs. Tiers missing from refs are left without price ids.
func Standard(refs PriceRefsByTier) (*Catalog, error) {
	return NewCatalog(
		Plan{
			Tier:        TierFree,
			Name:        "Free",
			Description: "Try mock interviews with a small monthly allowance.",
			Interval:    IntervalNone,
			PriceRefs:   refs[TierFree],
			Features: map[Feature]bool{
				FeatureAIInterviewer:         false,
				FeatureVideoRecording:        false,
				FeatureCalendarIntegration:   false,
				FeatureResumeParsing:         true,
				FeatureCoverLetterGeneration: false,
				FeaturePrioritySupport:       false,
			},
			Limits: map[LimitName]Limit{
				LimitInterviews:   Limited(3),
				LimitAISessions:   Limited(1),
				LimitCVs:          Limited(1),
				LimitCoverLetters: Limited(1),
			},
		},
		Plan{
			Tier:        TierMonthly,
			Name:        "Monthly",
			Description: "AI interviewer, recordings and calendar sync, billed monthly.",
			Price:       Pricing{Monthly: USD(1900), Yearly: USD(22800)},
			Interval:    IntervalMonthly,
			PriceRefs:   refs[TierMonthly],
			TrialDays:   7,
			Features: map[Feature]bool{
				FeatureAIInterviewer:         true,
				FeatureVideoRecording:        true,
				FeatureCalendarIntegration:   true,
				FeatureResumeParsing:         true,
				FeatureCoverLetterGeneration: true,
				FeaturePrioritySupport:       false,
			},
			Limits: map[LimitName]Limit{
				LimitInterviews:   Limited(30),
				LimitAISessions:   Limited(15),
				LimitCVs:          Limited(10),
				LimitCoverLetters: Limited(20),
			},
		},
		Plan{
			Tier:        TierYearly,
			Name:        "Yearly",
			Description: "Everything unlimited, billed once a year.",
			Price:       Pricing{Monthly: USD(1500), Yearly: USD(18000)},
			Interval:    IntervalYearly,
			PriceRefs:   refs[TierYearly],
			TrialDays:   7,
			Features: map[Feature]bool{
				FeatureAIInterviewer:         true,
				FeatureVideoRecording:        true,
				FeatureCalendarIntegration:   true,
				FeatureResumeParsing:         true,
				FeatureCoverLetterGeneration: true,
				FeaturePrioritySupport:       true,
			},
			Limits: map[LimitName]Limit{
				LimitInterviews:   Unlimited(),
				LimitAISessions:   Unlimited(),
				LimitCVs:          Unlimited(),
				LimitCoverLetters: Unlimited(),
			},
		},
	)
}
