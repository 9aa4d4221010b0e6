package templates

import "github.com/jonathan/lead-personalizer/internal/types"

func personas(p ...types.Persona) []types.Persona      { return p }
func stages(s ...types.BuyerStage) []types.BuyerStage  { return s }
func sizes(s ...types.CompanySize) []types.CompanySize { return s }

// builtinTemplates is the shipped catalog. Order matters: ties in
// selection go to the template declared first.
func builtinTemplates() []Template {
	everyPersona := types.AllPersonas()
	everyStage := types.AllBuyerStages()

	return []Template{
		// Business leaders
		{
			ID:                  "exec-enterprise-evaluation",
			Name:                "Executive - Enterprise - Evaluation Stage",
			Personas:            personas(types.PersonaBusinessLeader),
			BuyerStages:         stages(types.StageEvaluation),
			CompanySizes:        sizes(types.SizeEnterprise),
			IntroTemplate:       "As {{company_name}} evaluates enterprise solutions in {{industry}}, leadership teams like yours are looking for proven platforms that scale and deliver measurable ROI.",
			CTATemplate:         "Compare how leading enterprises achieve results",
			Priority:            10,
			ConfidenceThreshold: 0.8,
		},
		{
			ID:                  "exec-enterprise-decision",
			Name:                "Executive - Enterprise - Decision Stage",
			Personas:            personas(types.PersonaBusinessLeader),
			BuyerStages:         stages(types.StageDecision),
			CompanySizes:        sizes(types.SizeEnterprise),
			IntroTemplate:       "{{company_name}} is making critical decisions about {{industry}} infrastructure. See how industry leaders are accelerating their transformation with confidence.",
			CTATemplate:         "Schedule your enterprise demo",
			Priority:            10,
			ConfidenceThreshold: 0.8,
		},
		{
			ID:                  "exec-mid-market-awareness",
			Name:                "Executive - Mid-Market - Awareness Stage",
			Personas:            personas(types.PersonaBusinessLeader),
			BuyerStages:         stages(types.StageAwareness),
			CompanySizes:        sizes(types.SizeMidMarket),
			IntroTemplate:       "Mid-market {{industry}} companies like {{company_name}} are discovering new approaches to driving growth and efficiency in competitive markets.",
			CTATemplate:         "Learn what's possible for mid-market leaders",
			Priority:            8,
			ConfidenceThreshold: 0.7,
		},
		{
			ID:                  "exec-smb-awareness",
			Name:                "Executive - SMB - Awareness Stage",
			Personas:            personas(types.PersonaBusinessLeader),
			BuyerStages:         stages(types.StageAwareness),
			CompanySizes:        sizes(types.SizeSMB, types.SizeStartup),
			IntroTemplate:       "Growing {{industry}} businesses like {{company_name}} need solutions that scale without complexity. See how other companies are building for the future.",
			CTATemplate:         "Explore solutions for growing businesses",
			Priority:            8,
			ConfidenceThreshold: 0.7,
		},

		// Security, operations and finance
		{
			ID:                  "security-enterprise-evaluation",
			Name:                "Security - Enterprise - Evaluation Stage",
			Personas:            personas(types.PersonaSecurity),
			BuyerStages:         stages(types.StageEvaluation),
			CompanySizes:        sizes(types.SizeEnterprise),
			IntroTemplate:       "Security teams at {{company_name}} are evaluating solutions that balance protection with operational efficiency. See how enterprise security leaders are modernizing their approach.",
			CTATemplate:         "Compare enterprise security capabilities",
			Priority:            9,
			ConfidenceThreshold: 0.8,
		},
		{
			ID:                  "security-mid-market-awareness",
			Name:                "Security - Mid-Market - Awareness Stage",
			Personas:            personas(types.PersonaSecurity),
			BuyerStages:         stages(types.StageAwareness),
			CompanySizes:        sizes(types.SizeMidMarket, types.SizeSMB),
			IntroTemplate:       "Security professionals in {{industry}} companies like {{company_name}} are discovering how to strengthen defenses without expanding teams or budgets.",
			CTATemplate:         "Learn modern security approaches",
			Priority:            7,
			ConfidenceThreshold: 0.7,
		},
		{
			ID:                  "ops-enterprise-evaluation",
			Name:                "Operations - Enterprise - Evaluation Stage",
			Personas:            personas(types.PersonaOperations),
			BuyerStages:         stages(types.StageEvaluation),
			CompanySizes:        sizes(types.SizeEnterprise),
			IntroTemplate:       "Operations teams at {{company_name}} are comparing solutions to streamline workflows and improve reliability across {{industry}} infrastructure.",
			CTATemplate:         "Compare operational efficiency solutions",
			Priority:            9,
			ConfidenceThreshold: 0.8,
		},
		{
			ID:                  "ops-mid-market-awareness",
			Name:                "Operations - Mid-Market - Awareness Stage",
			Personas:            personas(types.PersonaOperations),
			BuyerStages:         stages(types.StageAwareness),
			CompanySizes:        sizes(types.SizeMidMarket, types.SizeSMB),
			IntroTemplate:       "Operations leaders at {{company_name}} are exploring how {{industry}} companies are automating processes and reducing manual work.",
			CTATemplate:         "See how operations teams improve efficiency",
			Priority:            7,
			ConfidenceThreshold: 0.7,
		},
		{
			ID:                  "finance-enterprise-evaluation",
			Name:                "Finance - Enterprise - Evaluation Stage",
			Personas:            personas(types.PersonaFinance),
			BuyerStages:         stages(types.StageEvaluation),
			CompanySizes:        sizes(types.SizeEnterprise),
			IntroTemplate:       "Finance teams at {{company_name}} are evaluating solutions that deliver clear ROI and support {{industry}} financial planning at scale.",
			CTATemplate:         "Compare ROI and cost optimization",
			Priority:            9,
			ConfidenceThreshold: 0.8,
		},
		{
			ID:                  "finance-mid-market-awareness",
			Name:                "Finance - Mid-Market - Awareness Stage",
			Personas:            personas(types.PersonaFinance),
			BuyerStages:         stages(types.StageAwareness),
			CompanySizes:        sizes(types.SizeMidMarket, types.SizeSMB),
			IntroTemplate:       "Finance leaders in {{industry}} companies like {{company_name}} are discovering how to optimize spending while driving growth.",
			CTATemplate:         "Learn about cost-effective solutions",
			Priority:            7,
			ConfidenceThreshold: 0.7,
		},

		// Technical
		{
			ID:                  "technical-enterprise-evaluation",
			Name:                "Technical - Enterprise - Evaluation Stage",
			Personas:            personas(types.PersonaIT),
			BuyerStages:         stages(types.StageEvaluation),
			CompanySizes:        sizes(types.SizeEnterprise),
			IntroTemplate:       "Technical teams at {{company_name}} are evaluating {{industry}} platforms that integrate seamlessly and scale with enterprise architecture requirements.",
			CTATemplate:         "Compare technical capabilities and integrations",
			Priority:            9,
			ConfidenceThreshold: 0.8,
		},
		{
			ID:                  "technical-mid-market-awareness",
			Name:                "Technical - Mid-Market - Awareness Stage",
			Personas:            personas(types.PersonaIT),
			BuyerStages:         stages(types.StageAwareness),
			CompanySizes:        sizes(types.SizeMidMarket, types.SizeSMB),
			IntroTemplate:       "Technical professionals at {{company_name}} are exploring modern {{industry}} solutions that are powerful yet simple to implement and maintain.",
			CTATemplate:         "Explore technical architecture and integrations",
			Priority:            7,
			ConfidenceThreshold: 0.7,
		},
		{
			ID:                  "technical-decision",
			Name:                "Technical - Decision Stage",
			Personas:            personas(types.PersonaIT),
			BuyerStages:         stages(types.StageDecision),
			IntroTemplate:       "Technical teams at {{company_name}} are finalizing {{industry}} platform decisions. See detailed architecture, security, and integration documentation.",
			CTATemplate:         "Review technical specifications",
			Priority:            10,
			ConfidenceThreshold: 0.8,
		},

		// Fallbacks: broad matching, no confidence floor
		{
			ID:            "fallback-evaluation",
			Name:          "Fallback - Evaluation Stage",
			Personas:      everyPersona,
			BuyerStages:   stages(types.StageEvaluation),
			IntroTemplate: "As your team evaluates solutions for {{industry}}, see how companies are making confident decisions with comprehensive comparisons.",
			CTATemplate:   "Compare solutions side-by-side",
			Priority:      3,
		},
		{
			ID:            "fallback-awareness",
			Name:          "Fallback - Awareness Stage",
			Personas:      everyPersona,
			BuyerStages:   stages(types.StageAwareness),
			IntroTemplate: "Discover how {{industry}} companies are modernizing their approach to solve today's biggest challenges.",
			CTATemplate:   "Learn what's possible",
			Priority:      2,
		},
		{
			ID:            "fallback-decision",
			Name:          "Fallback - Decision Stage",
			Personas:      everyPersona,
			BuyerStages:   stages(types.StageDecision),
			IntroTemplate: "Your team is making important decisions about {{industry}} solutions. Get the detailed information you need to move forward with confidence.",
			CTATemplate:   "Get started today",
			Priority:      3,
		},
		{
			ID:            UltimateFallbackID,
			Name:          "Fallback - Generic",
			Personas:      everyPersona,
			BuyerStages:   everyStage,
			IntroTemplate: "See how companies in {{industry}} are solving complex challenges with modern solutions designed for teams like yours.",
			CTATemplate:   "Explore solutions",
			Priority:      1,
		},
	}
}
