package domain

// Channel is the acquisition channel of a campaign.
type Channel string

const (
	ChannelEmail       Channel = "Email"
	ChannelSocialMedia Channel = "Social Media"
	ChannelPaidSearch  Channel = "Paid Search"
	ChannelInfluencer  Channel = "Influencer"
	ChannelOrganic     Channel = "Organic"
	ChannelReferral    Channel = "Referral"
)

// String returns the string representation of Channel.
func (c Channel) String() string {
	return string(c)
}

// IsValid checks if the channel is a known value.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSocialMedia, ChannelPaidSearch, ChannelInfluencer, ChannelOrganic, ChannelReferral:
		return true
	}
	return false
}
