package enums

type DecisionAction string

const (
	DecisionAccept  DecisionAction = "accept"
	DecisionDecline DecisionAction = "decline"
)

func (a DecisionAction) Valid() bool {
	return a == DecisionAccept || a == DecisionDecline
}
