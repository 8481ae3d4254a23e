package proto

// PollingRate is the wire code for a USB polling rate.
type PollingRate byte

const (
	Polling125Hz  PollingRate = 0x00
	Polling250Hz  PollingRate = 0x01
	Polling500Hz  PollingRate = 0x02
	Polling1000Hz PollingRate = 0x03
)

var pollingHz = map[PollingRate]int{
	Polling125Hz:  125,
	Polling250Hz:  250,
	Polling500Hz:  500,
	Polling1000Hz: 1000,
}

var pollingFromHz = map[int]PollingRate{
	125:  Polling125Hz,
	250:  Polling250Hz,
	500:  Polling500Hz,
	1000: Polling1000Hz,
}

// PollingRateFromHz maps a rate in Hz to its wire code.
func PollingRateFromHz(hz int) (PollingRate, error) {
	r, ok := pollingFromHz[hz]
	if !ok {
		return 0, &EncodingError{Field: "polling rate", Value: hz, Reason: "must be 125, 250, 500 or 1000 Hz"}
	}
	return r, nil
}

// Hz returns the rate in Hz, or 0 for an unknown code.
func (r PollingRate) Hz() int { return pollingHz[r] }

// SetPollingRate builds the polling rate frame.
func SetPollingRate(r PollingRate) (Frame, error) {
	if _, ok := pollingHz[r]; !ok {
		return Frame{}, &EncodingError{Field: "polling rate code", Value: int(r), Reason: "unknown code"}
	}
	return makeFrame(CmdSetPollingRate, byte(r)), nil
}

// Alert threshold bounds; the vendor software only offers this window.
const (
	AlertThresholdMin = 5
	AlertThresholdMax = 25
)

// SetAlertThreshold builds the low-battery alert frame. The mouse alerts
// when battery falls below the threshold.
func SetAlertThreshold(percent int) (Frame, error) {
	if percent < AlertThresholdMin || percent > AlertThresholdMax {
		return Frame{}, &EncodingError{Field: "alert threshold", Value: percent, Reason: "outside 5-25"}
	}
	return makeFrame(CmdSetAlertThreshold, byte(percent)), nil
}
