// Package registry provides node factory registration for the registry system.
package registry

import (
	"github.com/fluxionhq/fluxion/pkg/agent"
	"github.com/fluxionhq/fluxion/pkg/llm"
	agentnode "github.com/fluxionhq/fluxion/pkg/nodes/agent"
	"github.com/fluxionhq/fluxion/pkg/nodes/combinetext"
	"github.com/fluxionhq/fluxion/pkg/nodes/conditional"
	"github.com/fluxionhq/fluxion/pkg/nodes/httprequest"
	"github.com/fluxionhq/fluxion/pkg/nodes/input"
	"github.com/fluxionhq/fluxion/pkg/nodes/jsonops"
	llmnode "github.com/fluxionhq/fluxion/pkg/nodes/llm"
	"github.com/fluxionhq/fluxion/pkg/nodes/output"
)

// RegisterDefaultNodes registers all built-in node factories with the
// registry. The chat client and agent loop are shared across node instances;
// either may be nil, in which case creating the dependent node types fails at
// deploy validation rather than at registration.
func (r *Registry) RegisterDefaultNodes(chat llm.ChatClient, loop *agent.Loop) {
	r.RegisterNode(input.NewInputNodeFactory())
	r.RegisterNode(output.NewOutputNodeFactory())

	r.RegisterNode(combinetext.NewCombineTextNodeFactory())
	r.RegisterNode(jsonops.NewJSONParseNodeFactory())
	r.RegisterNode(jsonops.NewJSONStringifyNodeFactory())
	r.RegisterNode(conditional.NewConditionalNodeFactory())

	r.RegisterNode(httprequest.NewHTTPRequestNodeFactory())
	r.RegisterNode(httprequest.NewAPICallNodeFactory())

	r.RegisterNode(llmnode.NewChatNodeFactory(chat))
	r.RegisterNode(llmnode.NewStructuredNodeFactory(chat))
	r.RegisterNode(agentnode.NewAgentNodeFactory(loop))
}
