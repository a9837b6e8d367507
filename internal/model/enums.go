package model

type UserAgreement string

const (
	AgreementAgree    UserAgreement = "agree"
	AgreementDisagree UserAgreement = "disagree"
)

func (a UserAgreement) Valid() bool {
	return a == AgreementAgree || a == AgreementDisagree
}

type LogKind string

const (
	LogKindRequest  LogKind = "request"
	LogKindResponse LogKind = "response"
	LogKindError    LogKind = "error"
)
