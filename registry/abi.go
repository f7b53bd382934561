package registry

// Contract ABIs, limited to the methods and events the clients use.
const (
	identityRegistryABI = `[
		{"type":"function","name":"register","stateMutability":"payable","inputs":[{"name":"agentDomain","type":"string"},{"name":"agentAddress","type":"address"}],"outputs":[{"name":"agentId","type":"uint256"}]},
		{"type":"function","name":"resolveByAddress","stateMutability":"view","inputs":[{"name":"agentAddress","type":"address"}],"outputs":[{"name":"agentId","type":"uint256"},{"name":"agentDomain","type":"string"},{"name":"agentAddress","type":"address"}]},
		{"type":"function","name":"registrationFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"event","name":"AgentRegistered","inputs":[{"name":"agentId","type":"uint256","indexed":true},{"name":"agentAddress","type":"address","indexed":true},{"name":"agentDomain","type":"string","indexed":false}]}
	]`

	reputationRegistryABI = `[
		{"type":"function","name":"acceptFeedback","stateMutability":"nonpayable","inputs":[{"name":"agentClientId","type":"uint256"},{"name":"agentServerId","type":"uint256"},{"name":"feedbackAuth","type":"bytes"}],"outputs":[]}
	]`

	validationRegistryABI = `[
		{"type":"function","name":"validationRequest","stateMutability":"nonpayable","inputs":[{"name":"agentValidatorId","type":"uint256"},{"name":"agentServerId","type":"uint256"},{"name":"dataHash","type":"bytes32"},{"name":"signature","type":"bytes"}],"outputs":[]}
	]`
)
