package journal

import "errors"

// Tee fans equity records out to several sinks. Nil sinks are skipped.
func Tee(sinks ...EquitySink) EquitySink {
	var out multiEquity
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

type multiEquity []EquitySink

func (m multiEquity) WriteEquity(e EquityRecord) error {
	for _, s := range m {
		if err := s.WriteEquity(e); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, even after a failure.
func (m multiEquity) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
