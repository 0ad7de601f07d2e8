package plan

// Known intents with dedicated plans. Any other intent gets the fallback plan.
const (
	IntentOrderStatus    = "order_status"
	IntentProductInfo    = "product_info"
	IntentTicketCreation = "ticket_creation"
	IntentReturnsRefunds = "returns_refunds"
	IntentGeneralInquiry = "general_inquiry"
	IntentGreeting       = "greeting"
	IntentEscalation     = "escalation"
	IntentUnknown        = "unknown"
)

// Component names referenced by the static plans.
const (
	ComponentOrderStore        = "order_store"
	ComponentKnowledgeBase     = "knowledge_base"
	ComponentHelpdesk          = "helpdesk"
	ComponentOrdersAgent       = "orders_agent"
	ComponentKnowledgeAgent    = "knowledge_agent"
	ComponentTicketsAgent      = "tickets_agent"
	ComponentResponseFormatter = "response_formatter"
	ComponentHumanHandoff      = "human_handoff"
)

// BuildContext carries the request facts a builder may bind into action
// parameters.
type BuildContext struct {
	Message  string
	OrderID  string
	Metadata map[string]any
}

// BuildForIntent returns the static plan for an intent. Unknown intents get
// a single fallback-response plan. Every returned plan satisfies Validate.
func BuildForIntent(intent string, bc BuildContext) *ExecutionPlan {
	switch intent {
	case IntentOrderStatus:
		return buildOrderStatus(bc)
	case IntentProductInfo:
		return buildProductInfo(bc)
	case IntentTicketCreation:
		return buildTicket(bc)
	case IntentReturnsRefunds:
		return buildReturns(bc)
	case IntentGeneralInquiry, IntentGreeting:
		return buildKnowledge(bc)
	case IntentEscalation:
		return buildEscalation(bc)
	default:
		return buildFallback(bc)
	}
}

// PlanComponents returns every component name any static plan can reference.
// Collaborator registries are validated against this set at startup.
func PlanComponents() []string {
	intents := []string{
		IntentOrderStatus, IntentProductInfo, IntentTicketCreation,
		IntentReturnsRefunds, IntentGeneralInquiry, IntentEscalation,
		IntentUnknown,
	}
	seen := make(map[string]bool)
	var out []string
	for _, intent := range intents {
		for _, c := range BuildForIntent(intent, BuildContext{}).Components() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func buildOrderStatus(bc BuildContext) *ExecutionPlan {
	p := NewPlan("plan_order_status", IntentOrderStatus)
	params := map[string]any{}
	if bc.OrderID != "" {
		params["order_id"] = bc.OrderID
	}
	p.AddAction(Action{
		ID:          "fetch_order",
		Type:        TypeDataFetch,
		Component:   ComponentOrderStore,
		Description: "Fetch order data from the order store",
		Parameters:  params,
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "generate_response",
		Type:        TypeAgentCall,
		Component:   ComponentOrdersAgent,
		Description: "Generate order status response",
		DependsOn:   []string{"fetch_order"},
		Required:    true,
	})
	return p
}

func buildProductInfo(BuildContext) *ExecutionPlan {
	p := NewPlan("plan_product_info", IntentProductInfo)
	p.AddAction(Action{
		ID:          "search_knowledge",
		Type:        TypeDataFetch,
		Component:   ComponentKnowledgeBase,
		Description: "Search product information",
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "generate_answer",
		Type:        TypeAgentCall,
		Component:   ComponentKnowledgeAgent,
		Description: "Generate product information answer",
		DependsOn:   []string{"search_knowledge"},
		Required:    true,
	})
	return p
}

func buildTicket(BuildContext) *ExecutionPlan {
	p := NewPlan("plan_ticket", IntentTicketCreation)
	p.AddAction(Action{
		ID:          "create_ticket_data",
		Type:        TypeAgentCall,
		Component:   ComponentTicketsAgent,
		Description: "Generate ticket structure",
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "create_ticket",
		Type:        TypeToolCall,
		Component:   ComponentHelpdesk,
		Description: "Create ticket in the helpdesk",
		DependsOn:   []string{"create_ticket_data"},
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "send_confirmation",
		Type:        TypeResponseGeneration,
		Component:   ComponentResponseFormatter,
		Description: "Send ticket confirmation to user",
		DependsOn:   []string{"create_ticket"},
		Required:    true,
	})
	return p
}

func buildReturns(bc BuildContext) *ExecutionPlan {
	p := NewPlan("plan_returns", IntentReturnsRefunds)
	params := map[string]any{}
	if bc.OrderID != "" {
		params["order_id"] = bc.OrderID
	}
	p.AddAction(Action{
		ID:          "fetch_order",
		Type:        TypeDataFetch,
		Component:   ComponentOrderStore,
		Description: "Fetch order for return",
		Parameters:  params,
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "create_return_ticket",
		Type:        TypeAgentCall,
		Component:   ComponentTicketsAgent,
		Description: "Create return ticket",
		DependsOn:   []string{"fetch_order"},
		Required:    true,
	})
	return p
}

func buildKnowledge(BuildContext) *ExecutionPlan {
	p := NewPlan("plan_knowledge", IntentGeneralInquiry)
	p.AddAction(Action{
		ID:          "search_knowledge",
		Type:        TypeDataFetch,
		Component:   ComponentKnowledgeBase,
		Description: "Search knowledge base",
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "generate_answer",
		Type:        TypeAgentCall,
		Component:   ComponentKnowledgeAgent,
		Description: "Generate answer",
		DependsOn:   []string{"search_knowledge"},
		Required:    true,
	})
	return p
}

func buildEscalation(BuildContext) *ExecutionPlan {
	p := NewPlan("plan_escalation", IntentEscalation)
	p.AddAction(Action{
		ID:          "notify_human",
		Type:        TypeEscalation,
		Component:   ComponentHumanHandoff,
		Description: "Notify human agents",
		Required:    true,
	})
	p.AddAction(Action{
		ID:          "send_handoff",
		Type:        TypeResponseGeneration,
		Component:   ComponentResponseFormatter,
		Description: "Send handoff message to user",
		DependsOn:   []string{"notify_human"},
		Required:    true,
	})
	return p
}

func buildFallback(BuildContext) *ExecutionPlan {
	p := NewPlan("plan_default", IntentUnknown)
	p.AddAction(Action{
		ID:          "generate_fallback",
		Type:        TypeResponseGeneration,
		Component:   ComponentResponseFormatter,
		Description: "Generate fallback response",
		Required:    true,
	})
	return p
}
